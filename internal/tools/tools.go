// Package tools exposes the weather pipeline as MCP tools. Each handler is a
// thin composition over the weather service; errors surface as tool-level
// failure messages, never raw errors or panics.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"knmi-weather-mcp/internal/describe"
	"knmi-weather-mcp/internal/models"
	"knmi-weather-mcp/internal/observability"
	"knmi-weather-mcp/internal/stations"
	"knmi-weather-mcp/internal/validation"
	"knmi-weather-mcp/internal/weather"
)

const (
	minPlaceLen = 2
	maxPlaceLen = 100
)

// Handler holds dependencies for the MCP tool handlers.
type Handler struct {
	service     *weather.Service
	searchLimit int
	logger      *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(service *weather.Service, searchLimit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, searchLimit: searchLimit, logger: logger}
}

// Register adds the four weather tools to the MCP server.
func (h *Handler) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_location_weather",
		mcp.WithDescription("Get the current weather measurements for a place in the Netherlands as structured data (nearest KNMI station, latest 10-minute interval)."),
		mcp.WithString("location", mcp.Required(),
			mcp.Description("City or place name in the Netherlands, e.g. \"Amsterdam\"")),
	), h.instrument("get_location_weather", h.getLocationWeather))

	s.AddTool(mcp.NewTool("what_is_the_weather_like_in",
		mcp.WithDescription("Get a natural-language summary of the current weather for a place in the Netherlands."),
		mcp.WithString("location", mcp.Required(),
			mcp.Description("City or place name in the Netherlands, e.g. \"Utrecht\"")),
	), h.instrument("what_is_the_weather_like_in", h.weatherSummary))

	s.AddTool(mcp.NewTool("search_location",
		mcp.WithDescription("Search for locations in the Netherlands and return candidate places with coordinates."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Search term for a Dutch location")),
	), h.instrument("search_location", h.searchLocation))

	s.AddTool(mcp.NewTool("get_nearest_station",
		mcp.WithDescription("Find the nearest KNMI weather station to the given coordinates."),
		mcp.WithNumber("latitude", mcp.Required(),
			mcp.Description("Latitude in degrees (WGS84)")),
		mcp.WithNumber("longitude", mcp.Required(),
			mcp.Description("Longitude in degrees (WGS84)")),
	), h.instrument("get_nearest_station", h.nearestStation))
}

// instrument wraps a tool handler with a correlation ID, request-scoped
// logging, metrics and uniform error rendering.
func (h *Handler) instrument(name string, fn server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		corrID := uuid.New().String()
		logger := h.logger.With(
			zap.String("tool", name),
			zap.String("correlation_id", corrID))
		ctx = observability.WithCorrelationID(ctx, corrID)
		ctx = observability.WithLogger(ctx, logger)

		logger.Info("tool invoked")
		result, err := fn(ctx, req)
		duration := time.Since(start)
		observability.ToolDuration.WithLabelValues(name).Observe(duration.Seconds())

		if err != nil {
			category := weather.Categorize(err)
			observability.ToolInvocationsTotal.WithLabelValues(name, string(category)).Inc()
			logger.Error("tool failed",
				zap.String("category", string(category)),
				zap.Duration("duration", duration),
				zap.Error(err))
			return mcp.NewToolResultError(weather.UserMessage(err)), nil
		}

		observability.ToolInvocationsTotal.WithLabelValues(name, "success").Inc()
		logger.Info("tool completed", zap.Duration("duration", duration))
		return result, nil
	}
}

func (h *Handler) getLocationWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	place, err := h.placeArg(req, "location")
	if err != nil {
		return nil, err
	}
	obs, err := h.service.ByLocation(ctx, place)
	if err != nil {
		return nil, err
	}
	return jsonResult(obs)
}

func (h *Handler) weatherSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	place, err := h.placeArg(req, "location")
	if err != nil {
		return nil, err
	}
	obs, err := h.service.ByLocation(ctx, place)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(describe.Describe(obs)), nil
}

func (h *Handler) searchLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := h.placeArg(req, "query")
	if err != nil {
		return nil, err
	}
	places, err := h.service.SearchLocations(ctx, query, h.searchLimit)
	if err != nil {
		return nil, err
	}
	return jsonResult(places)
}

func (h *Handler) nearestStation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, err := req.RequireFloat("latitude")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stations.ErrInvalidCoordinate, err)
	}
	lon, err := req.RequireFloat("longitude")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stations.ErrInvalidCoordinate, err)
	}

	station, dist, err := h.service.NearestStation(models.Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		return nil, err
	}
	return jsonResult(struct {
		Station    models.Station `json:"station"`
		DistanceKm float64        `json:"distance_km"`
	}{station, dist})
}

// placeArg fetches and validates a free-text place argument.
func (h *Handler) placeArg(req mcp.CallToolRequest, key string) (string, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", validation.ErrLocationEmpty, err)
	}
	return validation.ValidatePlace(raw, minPlaceLen, maxPlaceLen)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
