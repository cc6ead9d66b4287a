//go:build integration
// +build integration

package knmi

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// integrationClient builds a client against the real KNMI data platform.
// Skips the test when KNMI_API_KEY is not set.
func integrationClient(t *testing.T) *Client {
	t.Helper()
	apiKey := strings.TrimSpace(os.Getenv("KNMI_API_KEY"))
	if apiKey == "" {
		t.Skip("KNMI_API_KEY not set, skipping integration test")
	}
	c, err := NewClient(apiKey,
		"https://api.dataplatform.knmi.nl/open-data/v1",
		"Actuele10mindataKNMIstations", "2",
		30*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestIntegration_ValidateKey(t *testing.T) {
	c := integrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.ValidateKey(ctx); err != nil {
		t.Fatalf("ValidateKey: %v", err)
	}
}

func TestIntegration_FetchLatest(t *testing.T) {
	c := integrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bundle, err := c.FetchLatest(ctx)
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(bundle.Data) == 0 {
		t.Fatal("empty bundle")
	}
	if !strings.HasSuffix(bundle.Filename, ".nc") {
		t.Errorf("filename = %q, want NetCDF file", bundle.Filename)
	}
	// The dataset publishes every 10 minutes; the latest file should be fresh.
	if time.Since(bundle.RetrievedAt) > time.Minute {
		t.Errorf("RetrievedAt = %v, want recent", bundle.RetrievedAt)
	}
}
