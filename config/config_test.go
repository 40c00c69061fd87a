package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultBaseURL, cfg.Scrape.BaseURL)
	assert.Equal(t, "browser", cfg.Scrape.Engine)
	assert.Equal(t, 2.0, cfg.Scrape.RateLimitSeconds)
	assert.Equal(t, 2*time.Second, cfg.Scrape.RetryDelay)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "1920,1080", cfg.Browser.WindowSize)
	assert.Equal(t, []string{"Image", "Stylesheet", "Font", "Media"},
		cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TICHA_BASE_URL", "http://localhost:9999/table/")
	t.Setenv("TICHA_ENGINE", "http")
	t.Setenv("TICHA_RATE_LIMIT", "0.5")
	t.Setenv("TICHA_HEADLESS", "false")
	t.Setenv("TICHA_TABLE_TIMEOUT", "3s")
	t.Setenv("TICHA_API_KEYS", "key-a, key-b")

	cfg := Load()

	assert.Equal(t, "http://localhost:9999/table/", cfg.Scrape.BaseURL)
	assert.Equal(t, "http", cfg.Scrape.Engine)
	assert.Equal(t, 0.5, cfg.Scrape.RateLimitSeconds)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Scrape.TableTimeout)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Auth.APIKeys)
}

func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("TICHA_RATE_LIMIT", "not-a-number")
	t.Setenv("TICHA_TABLE_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 2.0, cfg.Scrape.RateLimitSeconds)
	assert.Equal(t, 20*time.Second, cfg.Scrape.TableTimeout)
}
