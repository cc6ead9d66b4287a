package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"knmi-weather-mcp/internal/config"
	"knmi-weather-mcp/internal/decode"
	"knmi-weather-mcp/internal/diag"
	"knmi-weather-mcp/internal/geocode"
	"knmi-weather-mcp/internal/knmi"
	"knmi-weather-mcp/internal/observability"
	"knmi-weather-mcp/internal/stations"
	"knmi-weather-mcp/internal/tools"
	"knmi-weather-mcp/internal/weather"
)

const version = "1.0.0"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer observability.FlushLogs(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	knmiClient, err := knmi.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Dataset, cfg.DatasetVersion, cfg.UpstreamTimeout, logger)
	if err != nil {
		logger.Fatal("knmi client", zap.Error(err))
	}
	geocoder := geocode.NewNominatimGeocoder(cfg.GeocoderURL, cfg.UserAgent, cfg.GeocoderTimeout, cfg.GeocoderRPS, logger)
	directory := stations.NewDirectory()
	resolver := stations.NewResolver(directory)
	decoder := decode.NewDecoder(logger)
	svc := weather.NewService(geocoder, resolver, knmiClient, decoder, logger)

	if cfg.ValidateKeyOnStart {
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := knmiClient.ValidateKey(probeCtx)
		cancel()
		switch {
		case err == nil:
			logger.Info("KNMI API key validated")
		case errors.Is(err, knmi.ErrAuthenticationFailed):
			logger.Fatal("KNMI API key rejected", zap.Error(err))
		default:
			logger.Warn("KNMI API key validation inconclusive", zap.Error(err))
		}
	}

	var diagServer *diag.Server
	if cfg.DiagPort != "" {
		diagServer = diag.NewServer(cfg.DiagPort, directory, knmiClient.ValidateKey, version, logger)
		go func() {
			if err := diagServer.ListenAndServe(); err != nil {
				logger.Error("diagnostic server", zap.Error(err))
			}
		}()
	}

	mcpServer := server.NewMCPServer("KNMI Weather", version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	tools.NewHandler(svc, cfg.SearchLimit, logger).Register(mcpServer)

	logger.Info("serving MCP over stdio",
		zap.Int("stations", directory.Len()),
		zap.String("dataset", cfg.Dataset))
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("mcp server", zap.Error(err))
	}

	if diagServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := diagServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("diagnostic server shutdown", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
