package gorm

import "time"

// Profile tracks one user's route usage, created once on identity-provider
// confirmation.
type Profile struct {
	UserID     string    `gorm:"column:user_id;primaryKey"`
	Email      string    `gorm:"column:email"`
	RouteCount int       `gorm:"column:route_count;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Profile) TableName() string { return "profiles" }
