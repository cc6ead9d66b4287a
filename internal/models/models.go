package models

import "time"

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Station is a fixed KNMI observation point. The station table is loaded
// once at startup and never mutated.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Region    string  `json:"region,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Coordinates returns the station location as a Coordinates value.
func (s Station) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// RawBundle is the undecoded NetCDF payload of the latest 10-minute
// observation file for the full station network.
type RawBundle struct {
	Data        []byte
	Filename    string
	RetrievedAt time.Time
}

// Observation holds the decoded measurements of one station for the latest
// available timestamp. Nil fields were not reported by the station in the
// current interval.
type Observation struct {
	StationID   string    `json:"station_id"`
	StationName string    `json:"station_name"`
	Timestamp   time.Time `json:"timestamp"`
	SourceFile  string    `json:"source_file,omitempty"`

	Temperature    *float64 `json:"temperature,omitempty"`            // °C
	Humidity       *float64 `json:"humidity,omitempty"`               // %
	WindSpeed      *float64 `json:"wind_speed,omitempty"`             // m/s
	WindDirection  *float64 `json:"wind_direction,omitempty"`         // degrees, 0=N
	Precipitation  *float64 `json:"precipitation,omitempty"`          // mm over the interval
	PrecipDuration *float64 `json:"precipitation_duration,omitempty"` // minutes
	Visibility     *float64 `json:"visibility,omitempty"`             // meters
	Pressure       *float64 `json:"pressure,omitempty"`               // hPa
}

// Place is a geocoding candidate returned by the location search.
type Place struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates returns the place location as a Coordinates value.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}
