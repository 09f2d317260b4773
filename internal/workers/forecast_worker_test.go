package workers

import (
	"strings"
	"testing"

	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/models/gorm"
)

func testRoute(cityKey string) gorm.Route {
	return gorm.Route{
		ID:             "route-1",
		CityKey:        cityKey,
		Origin:         gorm.NewWaypointColumn(gorm.Waypoint{Lat: 53.34, Lng: -6.26, Label: "Home"}),
		Destination:    gorm.NewWaypointColumn(gorm.Waypoint{Lat: 53.341, Lng: -6.261, Label: "Office"}),
		StaticDuration: 20,
	}
}

func testScheduledRoute() gorm.ScheduledRoute {
	return gorm.ScheduledRoute{
		UserID:     "user-1",
		RouteID:    "route-1",
		ArriveBy:   "09:00",
		Timezone:   "UTC",
		DaysOfWeek: []string{"MON"},
	}
}

func TestForecastOneRouteDay_NoSignals(t *testing.T) {
	w := &ForecastWorker{}
	route := testRoute("dublin-ie")
	scheduled := testScheduledRoute()

	day, err := w.forecastOneRouteDay(route, scheduled, "2026-08-10",
		map[repositories.CityDateKey]gorm.WeatherDay{},
		map[repositories.CityDateKey]gorm.EventDay{},
	)
	if err != nil {
		t.Fatalf("forecastOneRouteDay: %v", err)
	}
	if day.HasWeatherData || day.HasEventData {
		t.Errorf("expected no weather/event data flags set, got %+v", day)
	}
	if day.ExtraBufferMins != 0 {
		t.Errorf("expected zero extra buffer with no signals, got %d", day.ExtraBufferMins)
	}
	if day.ForecastDate != "2026-08-10" {
		t.Errorf("ForecastDate = %q, want 2026-08-10", day.ForecastDate)
	}
}

func TestForecastOneRouteDay_RainAddsBuffer(t *testing.T) {
	w := &ForecastWorker{}
	route := testRoute("dublin-ie")
	scheduled := testScheduledRoute()

	key := repositories.CityDateKey{CityKey: "dublin-ie", ForecastDate: "2026-08-10"}
	weatherDays := map[repositories.CityDateKey]gorm.WeatherDay{
		key: {
			CityKey:      "dublin-ie",
			ForecastDate: "2026-08-10",
			Hourly:       gorm.NewHourlyList([]gorm.HourlyPrecip{{Hour: 8, PrecipitationMm: 3.0}}),
		},
	}

	day, err := w.forecastOneRouteDay(route, scheduled, "2026-08-10", weatherDays, map[repositories.CityDateKey]gorm.EventDay{})
	if err != nil {
		t.Fatalf("forecastOneRouteDay: %v", err)
	}
	if !day.HasWeatherData {
		t.Error("expected HasWeatherData to be true")
	}
	if day.ExtraBufferMins == 0 {
		t.Error("expected a non-zero buffer for commute-window rain")
	}
	if !strings.Contains(day.Reasoning, "Rain") {
		t.Errorf("expected reasoning to mention rain, got %q", day.Reasoning)
	}
}

func TestForecastOneRouteDay_EventOnCorridorAddsBuffer(t *testing.T) {
	w := &ForecastWorker{}
	route := testRoute("dublin-ie")
	scheduled := testScheduledRoute()

	key := repositories.CityDateKey{CityKey: "dublin-ie", ForecastDate: "2026-08-10"}
	eventDays := map[repositories.CityDateKey]gorm.EventDay{
		key: {
			CityKey:      "dublin-ie",
			ForecastDate: "2026-08-10",
			Events: gorm.NewEventList([]gorm.EventRecord{
				{Name: "Road Closure", Venue: "Main St", Lat: 53.3405, Lng: -6.2605, StartTime: "08:45"},
			}),
		},
	}

	day, err := w.forecastOneRouteDay(route, scheduled, "2026-08-10", map[repositories.CityDateKey]gorm.WeatherDay{}, eventDays)
	if err != nil {
		t.Fatalf("forecastOneRouteDay: %v", err)
	}
	if !day.HasEventData {
		t.Error("expected HasEventData to be true")
	}
}

func TestForecastOneRouteDay_InvalidArriveBy(t *testing.T) {
	w := &ForecastWorker{}
	route := testRoute("dublin-ie")
	scheduled := testScheduledRoute()
	scheduled.ArriveBy = "not-a-time"

	_, err := w.forecastOneRouteDay(route, scheduled, "2026-08-10",
		map[repositories.CityDateKey]gorm.WeatherDay{},
		map[repositories.CityDateKey]gorm.EventDay{},
	)
	if err == nil {
		t.Fatal("expected error for invalid arriveBy, got nil")
	}
}
