// Package weather composes the lookup pipeline: geocode, nearest-station
// resolution, bundle fetch, decode.
package weather

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"knmi-weather-mcp/internal/geocode"
	"knmi-weather-mcp/internal/knmi"
	"knmi-weather-mcp/internal/models"
	"knmi-weather-mcp/internal/observability"
	"knmi-weather-mcp/internal/stations"
)

// ErrOutsideNetherlands is returned when a geocoded place or explicit
// coordinate falls outside the dataset coverage area.
var ErrOutsideNetherlands = errors.New("location outside the Netherlands")

// Decoder extracts a station's observation from a raw bundle.
type Decoder interface {
	Decode(bundle models.RawBundle, station models.Station) (models.Observation, error)
}

// Service runs the lookup pipeline. Every call re-fetches the latest bundle:
// the source updates every 10 minutes and freshness beats caching here.
type Service struct {
	geocoder geocode.Geocoder
	resolver *stations.Resolver
	fetcher  knmi.Fetcher
	decoder  Decoder
	logger   *zap.Logger
}

// NewService returns a Service over the given components.
func NewService(geocoder geocode.Geocoder, resolver *stations.Resolver, fetcher knmi.Fetcher, decoder Decoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		geocoder: geocoder,
		resolver: resolver,
		fetcher:  fetcher,
		decoder:  decoder,
		logger:   logger,
	}
}

// ByLocation geocodes the place name and returns the nearest station's
// latest observation.
func (s *Service) ByLocation(ctx context.Context, place string) (models.Observation, error) {
	logger := s.requestLogger(ctx).With(zap.String("place", place))

	logger.Debug("geocoding place")
	coords, err := s.geocoder.Geocode(ctx, place)
	if err != nil {
		logger.Error("geocoding failed", zap.String("category", string(Categorize(err))), zap.Error(err))
		return models.Observation{}, fmt.Errorf("geocode %q: %w", place, err)
	}

	obs, err := s.ByCoordinates(ctx, coords)
	if err != nil {
		return models.Observation{}, err
	}
	logger.Info("weather lookup complete",
		zap.String("station_id", obs.StationID),
		zap.Time("observed_at", obs.Timestamp))
	return obs, nil
}

// ByCoordinates resolves the nearest station to the coordinate and returns
// its latest observation. Coordinates outside the dataset coverage area are
// rejected before any upstream call.
func (s *Service) ByCoordinates(ctx context.Context, coords models.Coordinates) (models.Observation, error) {
	logger := s.requestLogger(ctx).With(
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude))

	station, dist, err := s.NearestStation(coords)
	if err != nil {
		logger.Error("station resolution failed", zap.String("category", string(Categorize(err))), zap.Error(err))
		return models.Observation{}, err
	}
	if !stations.InNetherlands(coords) {
		err := fmt.Errorf("%w: (%v, %v)", ErrOutsideNetherlands, coords.Latitude, coords.Longitude)
		logger.Error("coordinate outside coverage", zap.String("category", string(Categorize(err))), zap.Error(err))
		return models.Observation{}, err
	}
	logger.Debug("resolved nearest station",
		zap.String("station_id", station.ID),
		zap.String("station_name", station.Name),
		zap.Float64("distance_km", dist))

	bundle, err := s.fetcher.FetchLatest(ctx)
	if err != nil {
		logger.Error("bundle fetch failed", zap.String("category", string(Categorize(err))), zap.Error(err))
		return models.Observation{}, err
	}

	obs, err := s.decoder.Decode(bundle, station)
	if err != nil {
		logger.Error("bundle decode failed", zap.String("category", string(Categorize(err))), zap.Error(err))
		return models.Observation{}, err
	}
	return obs, nil
}

// NearestStation scans the directory for the closest station. Any valid
// coordinate resolves; the coverage-area gate applies only to the weather
// pipeline, not to a standalone nearest-station lookup.
func (s *Service) NearestStation(coords models.Coordinates) (models.Station, float64, error) {
	station, dist, err := s.resolver.Nearest(coords)
	if err != nil {
		return models.Station{}, 0, err
	}
	observability.StationDistanceKm.Observe(dist)
	return station, dist, nil
}

// SearchLocations returns geocoding candidates for a query.
func (s *Service) SearchLocations(ctx context.Context, query string, limit int) ([]models.Place, error) {
	places, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		s.requestLogger(ctx).Error("location search failed",
			zap.String("query", query),
			zap.String("category", string(Categorize(err))),
			zap.Error(err))
		return nil, err
	}
	return places, nil
}

func (s *Service) requestLogger(ctx context.Context) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.logger
}
