package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"knmi-weather-mcp/internal/models"
	"knmi-weather-mcp/internal/observability"
)

var (
	// ErrLocationNotFound is returned when the provider has no match for the
	// place name inside the Netherlands.
	ErrLocationNotFound = errors.New("location not found")

	// ErrUnavailable is returned on transport failures or provider 5xx, kept
	// distinct from not-found so callers can retry instead of reporting a bad
	// place name.
	ErrUnavailable = errors.New("geocoding unavailable")
)

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (models.Coordinates, error)
	Search(ctx context.Context, query string, limit int) ([]models.Place, error)
}

// NominatimGeocoder queries the OSM Nominatim search API restricted to the
// Netherlands. Outbound calls respect the Nominatim usage policy through a
// client-side rate limiter (1 req/s by default).
type NominatimGeocoder struct {
	searchURL string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewNominatimGeocoder returns a geocoder against searchURL. rps bounds the
// outbound request rate; timeout bounds each request.
func NewNominatimGeocoder(searchURL, userAgent string, timeout time.Duration, rps float64, logger *zap.Logger) *NominatimGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NominatimGeocoder{
		searchURL: searchURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}
}

// nominatimPlace is the subset of the Nominatim response we consume. Lat/lon
// arrive as strings.
type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Geocode resolves a place name to coordinates, taking the provider's
// highest-ranked match.
func (g *NominatimGeocoder) Geocode(ctx context.Context, place string) (models.Coordinates, error) {
	places, err := g.Search(ctx, place, 1)
	if err != nil {
		return models.Coordinates{}, err
	}
	return places[0].Coordinates(), nil
}

// Search returns up to limit candidate places for the query, in provider
// ranking order. An empty result set is ErrLocationNotFound.
func (g *NominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]models.Place, error) {
	if limit <= 0 {
		limit = 5
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	raw, err := g.callAPI(ctx, query, limit)
	if err != nil {
		observability.GeocodeResultsTotal.WithLabelValues("unavailable").Inc()
		return nil, err
	}
	if len(raw) == 0 {
		observability.GeocodeResultsTotal.WithLabelValues("not_found").Inc()
		g.logger.Info("no geocoding match", zap.String("query", query))
		return nil, fmt.Errorf("%w: %q has no match in the Netherlands", ErrLocationNotFound, query)
	}
	observability.GeocodeResultsTotal.WithLabelValues("success").Inc()

	places := make([]models.Place, 0, len(raw))
	for _, p := range raw {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		places = append(places, models.Place{
			Name:      p.DisplayName,
			Type:      p.Type,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: %q returned no usable coordinates", ErrLocationNotFound, query)
	}
	return places, nil
}

func (g *NominatimGeocoder) callAPI(ctx context.Context, query string, limit int) ([]nominatimPlace, error) {
	start := time.Now()

	base, err := url.Parse(g.searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid search URL: %v", ErrUnavailable, err)
	}
	params := url.Values{}
	params.Set("q", query+", Netherlands")
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("countrycodes", "nl")
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues("nominatim", "error").Inc()
		g.logger.Warn("geocoding request failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequestsTotal.WithLabelValues("nominatim", observability.StatusLabel(resp.StatusCode)).Inc()
	observability.UpstreamRequestDuration.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	g.logger.Debug("geocoding response",
		zap.String("query", query),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	var raw []nominatimPlace
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	return raw, nil
}
