package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"commuteforecast/backend/internal/auth"
	"commuteforecast/backend/internal/constants"
	"commuteforecast/backend/internal/models/gorm"
	"commuteforecast/backend/internal/services"
)

// createRouteRequest is the wire shape for POST /routes/create.
type createRouteRequest struct {
	Title           string         `json:"title"`
	Origin          gorm.Waypoint  `json:"origin"`
	Destination     gorm.Waypoint  `json:"destination"`
	Intermediates   []gorm.Waypoint `json:"intermediates"`
	TravelMode      string         `json:"travelMode"`
	StaticDuration  string         `json:"staticDuration"`
	TrafficDuration *string        `json:"trafficDuration,omitempty"`
	DistanceMeters  *int           `json:"distanceMeters,omitempty"`
	CityKey         string         `json:"cityKey"`
	CityLat         float64        `json:"cityLat"`
	CityLng         float64        `json:"cityLng"`
	ArriveBy        string         `json:"arriveBy"`
	Timezone        string         `json:"timezone"`
	DaysOfWeek      []string       `json:"daysOfWeek"`
}

func (req createRouteRequest) toInput() services.RouteInput {
	days := make([]constants.DayOfWeek, 0, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		days = append(days, constants.DayOfWeek(d))
	}
	return services.RouteInput{
		Title:           req.Title,
		Origin:          req.Origin,
		Destination:     req.Destination,
		Intermediates:   req.Intermediates,
		TravelMode:      constants.TravelMode(req.TravelMode),
		StaticDuration:  req.StaticDuration,
		TrafficDuration: req.TrafficDuration,
		DistanceMeters:  req.DistanceMeters,
		CityKey:         req.CityKey,
		CityLat:         req.CityLat,
		CityLng:         req.CityLng,
		ArriveBy:        req.ArriveBy,
		Timezone:        req.Timezone,
		DaysOfWeek:      days,
	}
}

// CreateRouteHandler handles POST /routes/create.
//
// @Summary Create a route
// @Tags Routes
// @Router /routes/create [post]
func (h *Handlers) CreateRouteHandler(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "missing authenticated user")
		return
	}

	var req createRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	route, err := h.deps.Services.RouteLifecycle.Create(r.Context(), claims.UserID(), req.toInput())
	if err != nil {
		writeRouteError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, route)
}

// updateRouteRequest is the wire shape for PUT /routes/update: routeId plus
// any subset of the route/schedule fields. A field absent from the request
// body leaves the corresponding column unchanged.
type updateRouteRequest struct {
	RouteID         string           `json:"routeId"`
	Title           *string          `json:"title,omitempty"`
	Origin          *gorm.Waypoint   `json:"origin,omitempty"`
	Destination     *gorm.Waypoint   `json:"destination,omitempty"`
	Intermediates   *[]gorm.Waypoint `json:"intermediates,omitempty"`
	TravelMode      *string          `json:"travelMode,omitempty"`
	StaticDuration  *string          `json:"staticDuration,omitempty"`
	TrafficDuration *string          `json:"trafficDuration,omitempty"`
	DistanceMeters  *int             `json:"distanceMeters,omitempty"`
	ArriveBy        *string          `json:"arriveBy,omitempty"`
	Timezone        *string          `json:"timezone,omitempty"`
	DaysOfWeek      *[]string        `json:"daysOfWeek,omitempty"`
}

func (req updateRouteRequest) toInput() services.RouteUpdateInput {
	input := services.RouteUpdateInput{
		Title:           req.Title,
		Origin:          req.Origin,
		Destination:     req.Destination,
		Intermediates:   req.Intermediates,
		StaticDuration:  req.StaticDuration,
		TrafficDuration: req.TrafficDuration,
		DistanceMeters:  req.DistanceMeters,
		ArriveBy:        req.ArriveBy,
		Timezone:        req.Timezone,
	}
	if req.TravelMode != nil {
		mode := constants.TravelMode(*req.TravelMode)
		input.TravelMode = &mode
	}
	if req.DaysOfWeek != nil {
		days := make([]constants.DayOfWeek, 0, len(*req.DaysOfWeek))
		for _, d := range *req.DaysOfWeek {
			days = append(days, constants.DayOfWeek(d))
		}
		input.DaysOfWeek = &days
	}
	return input
}

// UpdateRouteHandler handles PUT /routes/update.
//
// @Summary Partially update a route
// @Tags Routes
// @Router /routes/update [put]
func (h *Handlers) UpdateRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req updateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RouteID == "" {
		respondWithError(w, http.StatusBadRequest, "routeId is required")
		return
	}

	result, err := h.deps.Services.RouteLifecycle.Update(r.Context(), req.RouteID, req.toInput())
	if err != nil {
		writeRouteError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, result)
}

// deleteRouteRequest is the wire shape for DELETE /routes/delete.
type deleteRouteRequest struct {
	RouteID string `json:"routeId"`
}

// DeleteRouteHandler handles DELETE /routes/delete.
//
// @Summary Delete a route
// @Tags Routes
// @Router /routes/delete [delete]
func (h *Handlers) DeleteRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req deleteRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RouteID == "" {
		respondWithError(w, http.StatusBadRequest, "routeId is required")
		return
	}

	if err := h.deps.Services.RouteLifecycle.Delete(r.Context(), req.RouteID); err != nil {
		writeRouteError(w, err)
		return
	}

	respondWithSuccess[any](w, http.StatusOK, nil)
}

// FetchRoutesHandler handles GET /routes/fetch.
//
// @Summary Fetch all routes, schedules, and forecasts for the caller
// @Tags Routes
// @Router /routes/fetch [get]
func (h *Handlers) FetchRoutesHandler(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "missing authenticated user")
		return
	}

	result, err := h.deps.Services.RouteLifecycle.Fetch(r.Context(), claims.UserID())
	if err != nil {
		writeRouteError(w, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, result)
}

// writeRouteError maps a service-layer error to the right HTTP status,
// following response.go's respondWithError envelope.
func writeRouteError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	if errors.Is(err, constants.ErrRouteNotFound) || errors.Is(err, constants.ErrProfileNotFound) {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}
