package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("KNMI_API_KEY", "")
	chdirTemp(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing KNMI_API_KEY, got nil")
	}
	if !strings.Contains(err.Error(), "KNMI_API_KEY") {
		t.Errorf("error = %v, want mention of KNMI_API_KEY", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KNMI_API_KEY", "test-key-1234567890")
	t.Setenv("DIAG_PORT", "")
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dataset != "Actuele10mindataKNMIstations" {
		t.Errorf("Dataset = %q", cfg.Dataset)
	}
	if cfg.DatasetVersion != "2" {
		t.Errorf("DatasetVersion = %q", cfg.DatasetVersion)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 30s", cfg.UpstreamTimeout)
	}
	if cfg.GeocoderRPS != 1 {
		t.Errorf("GeocoderRPS = %v, want Nominatim policy default 1", cfg.GeocoderRPS)
	}
	if cfg.SearchLimit != 5 {
		t.Errorf("SearchLimit = %d, want 5", cfg.SearchLimit)
	}
	if cfg.DiagPort != "" {
		t.Errorf("DiagPort = %q, want disabled by default", cfg.DiagPort)
	}
}

func TestLoad_BearerPrefixStripped(t *testing.T) {
	t.Setenv("KNMI_API_KEY", "Bearer abc123def456")
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "abc123def456" {
		t.Errorf("APIKey = %q, want Bearer prefix stripped", cfg.APIKey)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	t.Setenv("KNMI_API_KEY", "test-key-1234567890")
	t.Setenv("ENV_NAME", "test")
	dir := chdirTemp(t)

	yaml := `
knmi:
  base_url: http://localhost:9999/v1
  timeout: 5s
geocoder:
  rate_limit_rps: 2
  search_limit: 3
diag:
  port: "8001"
validate_key_on_start: false
`
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UpstreamTimeout != 5*time.Second {
		t.Errorf("UpstreamTimeout = %v", cfg.UpstreamTimeout)
	}
	if cfg.GeocoderRPS != 2 {
		t.Errorf("GeocoderRPS = %v", cfg.GeocoderRPS)
	}
	if cfg.SearchLimit != 3 {
		t.Errorf("SearchLimit = %d", cfg.SearchLimit)
	}
	if cfg.DiagPort != "8001" {
		t.Errorf("DiagPort = %q", cfg.DiagPort)
	}
	if cfg.ValidateKeyOnStart {
		t.Error("ValidateKeyOnStart = true, want override to false")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 7 * time.Second},
		{"garbage", 7 * time.Second},
		{"-1s", 7 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{" 2m ", 2 * time.Minute},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, 7*time.Second); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// chdirTemp moves the test into an empty directory so Load does not pick up
// a real config/ tree or .env file.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}
