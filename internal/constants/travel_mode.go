package constants

import (
	"database/sql/driver"
	"fmt"
)

// TravelMode mirrors the Postgres ENUM 'travel_mode'.
type TravelMode string

const (
	TravelModeDrive      TravelMode = "DRIVE"
	TravelModeTransit    TravelMode = "TRANSIT"
	TravelModeWalk       TravelMode = "WALK"
	TravelModeTwoWheeler TravelMode = "TWO_WHEELER"
	TravelModeBicycle    TravelMode = "BICYCLE"
)

func (m TravelMode) String() string { return string(m) }

// Valid reports whether m is one of the known travel modes.
func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeDrive, TravelModeTransit, TravelModeWalk, TravelModeTwoWheeler, TravelModeBicycle:
		return true
	}
	return false
}

func (m *TravelMode) Scan(src interface{}) error {
	if src == nil {
		*m = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*m = TravelMode(v)
	case []byte:
		*m = TravelMode(v)
	default:
		return fmt.Errorf("TravelMode: cannot scan type %T", src)
	}
	return nil
}

func (m TravelMode) Value() (driver.Value, error) { return string(m), nil }
