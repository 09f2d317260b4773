package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"commuteforecast/backend/internal/common"
)

const (
	eventSearchRadiusKm = 25
	eventPageSize       = 200
	maxEventPages       = 5
	eventAPIKeySecret   = "EVENT_API_KEY"
)

// Event is one upcoming event near a point, the provider's normalized
// shape after stripping the upstream API's envelope.
type Event struct {
	Name      string
	Venue     string
	Lat       float64
	Lng       float64
	StartTime time.Time
	URL       string
}

// EventProvider fetches paginated nearby events: read page 0, follow the
// reported page count, then fan out the remaining pages concurrently.
type EventProvider struct {
	BaseURL  string
	Client   *http.Client
	Cache    common.CacheInterface
	Resolver SecretResolver
	Limiter  *rate.Limiter
}

// NewEventProvider builds a provider rate-limited to ~5 req/s, applied to
// outbound calls against a third-party events API.
func NewEventProvider(cache common.CacheInterface, resolver SecretResolver) *EventProvider {
	baseURL := os.Getenv("EVENT_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.events-provider.example/events.json"
	}
	return &EventProvider{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Cache:    cache,
		Resolver: resolver,
		Limiter:  rate.NewLimiter(5, 5),
	}
}

type eventPageResponse struct {
	TotalPages int `json:"totalPages"`
	Results    []struct {
		Name      string  `json:"name"`
		Venue     string  `json:"venue"`
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		StartTime string  `json:"startTime"`
		URL       string  `json:"url"`
	} `json:"results"`
}

// FetchEvents returns events within eventSearchRadiusKm of (lat, lng) over
// the window [tomorrow, tomorrow+6d], fetching page 0 first to discover
// totalPages, then the remaining pages (capped at maxEventPages)
// concurrently.
func (p *EventProvider) FetchEvents(ctx context.Context, lat, lng float64) ([]Event, error) {
	apiKey, err := cachedSecret(ctx, p.Cache, p.Resolver, "provider:event_api_key", eventAPIKeySecret)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeInvalidAPIKey, Message: "event provider API key unavailable", Err: err}
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, 1).Format("2006-01-02T15:04:05Z")
	windowEnd := now.AddDate(0, 0, 7).Format("2006-01-02T15:04:05Z")

	first, err := p.fetchPage(ctx, apiKey, lat, lng, windowStart, windowEnd, 0)
	if err != nil {
		return nil, err
	}

	events := normalizeEvents(first)
	totalPages := first.TotalPages
	if totalPages > maxEventPages {
		totalPages = maxEventPages
	}
	if totalPages <= 1 {
		return events, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for page := 1; page < totalPages; page++ {
		page := page
		g.Go(func() error {
			resp, err := p.fetchPage(gctx, apiKey, lat, lng, windowStart, windowEnd, page)
			if err != nil {
				return err
			}
			mu.Lock()
			events = append(events, normalizeEvents(resp)...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

func (p *EventProvider) fetchPage(ctx context.Context, apiKey string, lat, lng float64, start, end string, page int) (*eventPageResponse, error) {
	if err := p.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("latlong", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", eventSearchRadiusKm))
	q.Set("unit", "km")
	q.Set("startDateTime", start)
	q.Set("endDateTime", end)
	q.Set("size", fmt.Sprintf("%d", eventPageSize))
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("sort", "date,asc")

	reqURL := p.BaseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeNetworkError, Message: "failed to build event request", Err: err}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeNetworkError, Message: "event request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ProviderError{Code: ErrCodeRateLimited, Message: "event provider rate limited this request"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: fmt.Sprintf("event provider returned HTTP %d", resp.StatusCode),
			Details: string(body),
		}
	}

	var parsed eventPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Code: ErrCodeInvalidResponse, Message: "failed to decode event response", Err: err}
	}
	return &parsed, nil
}

func normalizeEvents(resp *eventPageResponse) []Event {
	events := make([]Event, 0, len(resp.Results))
	for _, r := range resp.Results {
		if math.IsNaN(r.Lat) || math.IsNaN(r.Lng) || math.IsInf(r.Lat, 0) || math.IsInf(r.Lng, 0) {
			continue
		}
		startTime, err := time.Parse(time.RFC3339, r.StartTime)
		if err != nil {
			continue
		}
		events = append(events, Event{
			Name:      r.Name,
			Venue:     r.Venue,
			Lat:       r.Lat,
			Lng:       r.Lng,
			StartTime: startTime,
			URL:       r.URL,
		})
	}
	return events
}
