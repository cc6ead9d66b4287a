package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	// KNMI Open Data platform.
	APIKey          string
	BaseURL         string
	Dataset         string
	DatasetVersion  string
	UpstreamTimeout time.Duration

	// Nominatim geocoding.
	GeocoderURL     string
	UserAgent       string
	GeocoderTimeout time.Duration
	GeocoderRPS     float64
	SearchLimit     int

	// Diagnostic HTTP listener (health + metrics); empty port disables it.
	DiagPort string

	// Probe the API key against the platform before serving tools.
	ValidateKeyOnStart bool
}

type fileConfig struct {
	KNMI struct {
		BaseURL        string `yaml:"base_url"`
		Dataset        string `yaml:"dataset"`
		DatasetVersion string `yaml:"dataset_version"`
		Timeout        string `yaml:"timeout"`
	} `yaml:"knmi"`

	Geocoder struct {
		URL       string  `yaml:"url"`
		UserAgent string  `yaml:"user_agent"`
		Timeout   string  `yaml:"timeout"`
		RateRPS   float64 `yaml:"rate_limit_rps"`
		Limit     int     `yaml:"search_limit"`
	} `yaml:"geocoder"`

	Diag struct {
		Port string `yaml:"port"`
	} `yaml:"diag"`

	ValidateKeyOnStart *bool `yaml:"validate_key_on_start"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev; the file
// is optional) after loading a .env file if present. The KNMI API key comes
// from the KNMI_API_KEY env var and is required: a missing key is a startup
// failure, never a per-request one.
func Load() (*Config, error) {
	_ = godotenv.Load() // absent .env is fine

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.APIKey = strings.TrimSpace(os.Getenv("KNMI_API_KEY"))
	// Tolerate keys pasted with the scheme included.
	cfg.APIKey = strings.TrimPrefix(cfg.APIKey, "Bearer ")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("KNMI_API_KEY required (set env or .env)")
	}

	cfg.BaseURL = fc.KNMI.BaseURL
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dataplatform.knmi.nl/open-data/v1"
	}
	cfg.Dataset = fc.KNMI.Dataset
	if cfg.Dataset == "" {
		cfg.Dataset = "Actuele10mindataKNMIstations"
	}
	cfg.DatasetVersion = fc.KNMI.DatasetVersion
	if cfg.DatasetVersion == "" {
		cfg.DatasetVersion = "2"
	}
	cfg.UpstreamTimeout = parseDuration(fc.KNMI.Timeout, 30*time.Second)

	cfg.GeocoderURL = fc.Geocoder.URL
	if cfg.GeocoderURL == "" {
		cfg.GeocoderURL = "https://nominatim.openstreetmap.org/search"
	}
	cfg.UserAgent = fc.Geocoder.UserAgent
	if cfg.UserAgent == "" {
		cfg.UserAgent = "knmi-weather-mcp/1.0"
	}
	cfg.GeocoderTimeout = parseDuration(fc.Geocoder.Timeout, 10*time.Second)
	cfg.GeocoderRPS = fc.Geocoder.RateRPS
	if cfg.GeocoderRPS <= 0 {
		cfg.GeocoderRPS = 1 // Nominatim usage policy: absolute maximum 1 req/s
	}
	cfg.SearchLimit = fc.Geocoder.Limit
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}

	cfg.DiagPort = strings.TrimSpace(os.Getenv("DIAG_PORT"))
	if cfg.DiagPort == "" {
		cfg.DiagPort = strings.TrimSpace(fc.Diag.Port)
	}

	cfg.ValidateKeyOnStart = true
	if fc.ValidateKeyOnStart != nil {
		cfg.ValidateKeyOnStart = *fc.ValidateKeyOnStart
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("knmi.timeout must be positive")
	}
	if cfg.GeocoderTimeout <= 0 {
		return fmt.Errorf("geocoder.timeout must be positive")
	}
	return nil
}
