// Package describe renders decoded observations as natural-language weather
// summaries. Pure functions over threshold tables; absent measurements are
// omitted, never rendered as placeholders.
package describe

import (
	"fmt"
	"math"
	"strings"

	"knmi-weather-mcp/internal/models"
)

// band maps the half-open numeric range [low, high) to a descriptor.
type band struct {
	low   float64
	high  float64
	label string
}

var temperatureBands = []band{
	{math.Inf(-1), 0, "freezing"},
	{0, 10, "cold"},
	{10, 15, "chilly"},
	{15, 20, "mild"},
	{20, 25, "warm"},
	{25, math.Inf(1), "hot"},
}

// Wind speed in m/s, loosely Beaufort-aligned.
var windBands = []band{
	{math.Inf(-1), 0.5, "calm"},
	{0.5, 3.4, "a light breeze"},
	{3.4, 8.0, "breezy"},
	{8.0, 13.9, "windy"},
	{13.9, math.Inf(1), "stormy"},
}

var visibilityBands = []band{
	{math.Inf(-1), 1000, "foggy"},
	{1000, 4000, "hazy"},
	{4000, 10000, "fair visibility"},
	{10000, math.Inf(1), "clear visibility"},
}

var compassPoints = []string{
	"north", "north-northeast", "northeast", "east-northeast",
	"east", "east-southeast", "southeast", "south-southeast",
	"south", "south-southwest", "southwest", "west-southwest",
	"west", "west-northwest", "northwest", "north-northwest",
}

// Describe renders the observation as a single sentence. Absent variables
// contribute no clause; an observation with no measurements at all still
// yields a non-empty attribution sentence.
func Describe(obs models.Observation) string {
	var clauses []string

	if obs.Temperature != nil {
		clauses = append(clauses, fmt.Sprintf("%s at %.1f°C", pick(temperatureBands, *obs.Temperature), *obs.Temperature))
	}
	if obs.WindSpeed != nil {
		clause := fmt.Sprintf("%s with wind at %.1f m/s", pick(windBands, *obs.WindSpeed), *obs.WindSpeed)
		if obs.WindDirection != nil {
			clause = fmt.Sprintf("%s with wind from the %s at %.1f m/s",
				pick(windBands, *obs.WindSpeed), Compass(*obs.WindDirection), *obs.WindSpeed)
		}
		clauses = append(clauses, clause)
	}
	if obs.Precipitation != nil {
		if *obs.Precipitation > 0 {
			clauses = append(clauses, fmt.Sprintf("%.1f mm of precipitation in the last interval", *obs.Precipitation))
		} else {
			clauses = append(clauses, "no precipitation")
		}
	}
	if obs.Humidity != nil {
		clauses = append(clauses, fmt.Sprintf("humidity %.0f%%", *obs.Humidity))
	}
	if obs.Visibility != nil {
		clauses = append(clauses, fmt.Sprintf("%s (%.0f m)", pick(visibilityBands, *obs.Visibility), *obs.Visibility))
	}
	if obs.Pressure != nil {
		clauses = append(clauses, fmt.Sprintf("pressure %.1f hPa", *obs.Pressure))
	}

	where := obs.StationName
	if where == "" {
		where = "station " + obs.StationID
	} else {
		where = fmt.Sprintf("%s (station %s)", obs.StationName, obs.StationID)
	}
	when := ""
	if !obs.Timestamp.IsZero() {
		when = fmt.Sprintf(" at %s", obs.Timestamp.Format("15:04 MST"))
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("No current measurements reported by %s%s.", where, when)
	}
	return fmt.Sprintf("Currently at %s%s: %s.", where, when, joinClauses(clauses))
}

// Compass maps a wind direction in degrees to a 16-point compass name.
func Compass(degrees float64) string {
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % len(compassPoints)
	return compassPoints[idx]
}

func pick(bands []band, v float64) string {
	for _, b := range bands {
		if v >= b.low && v < b.high {
			return b.label
		}
	}
	// Unreachable while the tables cover (-inf, +inf).
	return ""
}

func joinClauses(clauses []string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return strings.Join(clauses[:len(clauses)-1], ", ") + ", and " + clauses[len(clauses)-1]
}
