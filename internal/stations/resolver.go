package stations

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"knmi-weather-mcp/internal/models"
)

var (
	// ErrInvalidCoordinate is returned for latitudes outside [-90,90] or
	// longitudes outside [-180,180].
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrNoStations is returned when the directory is empty.
	ErrNoStations = errors.New("no stations available")
)

const earthRadiusKm = 6371.0

// Resolver finds the nearest station in a directory by great-circle distance.
type Resolver struct {
	directory *Directory
}

// NewResolver returns a Resolver over the given directory.
func NewResolver(directory *Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Nearest returns the station closest to the coordinate and the distance in
// kilometers. Ties go to the first station in directory order.
func (r *Resolver) Nearest(c models.Coordinates) (models.Station, float64, error) {
	if err := validateCoordinate(c); err != nil {
		return models.Station{}, 0, err
	}
	all := r.directory.All()
	if len(all) == 0 {
		return models.Station{}, 0, ErrNoStations
	}

	best := all[0]
	bestDist := Haversine(c, best.Coordinates())
	for _, s := range all[1:] {
		if d := Haversine(c, s.Coordinates()); d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best, bestDist, nil
}

// NearestK returns up to k stations ordered by ascending distance. The sort
// is stable, so equidistant stations keep directory order.
func (r *Resolver) NearestK(c models.Coordinates, k int) ([]models.Station, error) {
	if err := validateCoordinate(c); err != nil {
		return nil, err
	}
	all := r.directory.All()
	if len(all) == 0 {
		return nil, ErrNoStations
	}

	ordered := make([]models.Station, len(all))
	copy(ordered, all)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Haversine(c, ordered[i].Coordinates()) < Haversine(c, ordered[j].Coordinates())
	})
	if k > 0 && k < len(ordered) {
		ordered = ordered[:k]
	}
	return ordered, nil
}

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dlat := radians(b.Latitude - a.Latitude)
	dlon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func validateCoordinate(c models.Coordinates) error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
