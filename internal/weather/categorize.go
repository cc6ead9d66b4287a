package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knmi-weather-mcp/internal/decode"
	"knmi-weather-mcp/internal/geocode"
	"knmi-weather-mcp/internal/knmi"
	"knmi-weather-mcp/internal/stations"
	"knmi-weather-mcp/internal/validation"
)

// ErrorCategory is a stable label for error classification in metrics and
// user-facing tool messages.
type ErrorCategory string

const (
	CategoryInvalidPlace       ErrorCategory = "invalid_place"
	CategoryInvalidCoordinate  ErrorCategory = "invalid_coordinate"
	CategoryNoStations         ErrorCategory = "no_stations_available"
	CategoryOutsideNetherlands ErrorCategory = "outside_netherlands"
	CategoryLocationNotFound   ErrorCategory = "location_not_found"
	CategoryGeocodeUnavailable ErrorCategory = "geocoding_unavailable"
	CategoryAuthentication     ErrorCategory = "authentication_failed"
	CategoryNoRecentFile       ErrorCategory = "no_recent_file_available"
	CategoryNetwork            ErrorCategory = "network_error"
	CategoryUpstreamServer     ErrorCategory = "upstream_server_error"
	CategoryStationNotInBundle ErrorCategory = "station_not_in_bundle"
	CategoryMalformedBundle    ErrorCategory = "malformed_bundle"
	CategoryUnknown            ErrorCategory = "unknown"
)

// Categorize maps an error anywhere in the pipeline to its taxonomy
// category. Components never downgrade each other's failures, so a single
// errors.Is pass suffices.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, validation.ErrLocationEmpty),
		errors.Is(err, validation.ErrLocationTooShort),
		errors.Is(err, validation.ErrLocationTooLong),
		errors.Is(err, validation.ErrLocationInvalidChars):
		return CategoryInvalidPlace
	case errors.Is(err, stations.ErrInvalidCoordinate):
		return CategoryInvalidCoordinate
	case errors.Is(err, stations.ErrNoStations):
		return CategoryNoStations
	case errors.Is(err, ErrOutsideNetherlands):
		return CategoryOutsideNetherlands
	case errors.Is(err, geocode.ErrLocationNotFound):
		return CategoryLocationNotFound
	case errors.Is(err, geocode.ErrUnavailable):
		return CategoryGeocodeUnavailable
	case errors.Is(err, knmi.ErrAuthenticationFailed):
		return CategoryAuthentication
	case errors.Is(err, knmi.ErrNoRecentFile):
		return CategoryNoRecentFile
	case errors.Is(err, knmi.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CategoryNetwork
	case errors.Is(err, knmi.ErrUpstreamServer):
		return CategoryUpstreamServer
	case errors.Is(err, decode.ErrStationNotInBundle):
		return CategoryStationNotInBundle
	case errors.Is(err, decode.ErrMalformedBundle):
		return CategoryMalformedBundle
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection") {
		return CategoryNetwork
	}
	return CategoryUnknown
}

// UserMessage renders an error as a tool-level failure message: it names the
// failure category and, where actionable, suggests a correction.
func UserMessage(err error) string {
	switch Categorize(err) {
	case CategoryInvalidPlace:
		return "Invalid place name. Use letters, digits, spaces, commas, periods, apostrophes or hyphens, e.g. \"Den Haag\" or \"'s-Hertogenbosch\"."
	case CategoryInvalidCoordinate:
		return "Invalid coordinate: latitude must be in [-90,90] and longitude in [-180,180]."
	case CategoryNoStations:
		return "No weather stations are available. This should not happen; please report it."
	case CategoryOutsideNetherlands:
		return "That location is outside the Netherlands. This tool only covers the KNMI station network; try a Dutch place name."
	case CategoryLocationNotFound:
		return "Location not found in the Netherlands. Try a different or more specific place name, e.g. \"Utrecht\" instead of a street address."
	case CategoryGeocodeUnavailable:
		return "The geocoding service is currently unavailable. This is usually transient; try again in a moment."
	case CategoryAuthentication:
		return "Authentication with the KNMI data platform failed. Check the configured API key."
	case CategoryNoRecentFile:
		return "No recent observation file is available from KNMI. The dataset publishes every 10 minutes; try again shortly."
	case CategoryNetwork:
		return "A network error occurred while contacting the weather services. Try again in a moment."
	case CategoryUpstreamServer:
		return "The KNMI data platform returned a server error. Try again in a moment."
	case CategoryStationNotInBundle:
		return "The nearest station is missing from the latest observation bundle (it may be temporarily offline). Try a nearby place so a different station is selected."
	case CategoryMalformedBundle:
		return "The observation bundle could not be parsed. The upstream format may have changed; please report it."
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
