package constants

import "errors"

// Sentinel errors surfaced across the route store and lifecycle API.
var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrMaxRoutesReached = errors.New("maximum of 20 routes reached for this user")
	ErrNoFieldsToUpdate = errors.New("no route or schedule fields provided")
	ErrStaticDuration   = errors.New("static duration is required to compute a recommendation")
)

const (
	MsgMaxRoutes = "Maximum of 20 routes reached for this user"
)
