package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the manuscripts inventory page on the Ticha site.
const DefaultBaseURL = "https://ticha.haverford.edu/en/texts/handwritten/"

// DefaultSiteURL is the base for resolving relative document links.
const DefaultSiteURL = "https://ticha.haverford.edu"

// defaultUserAgent matches a plain desktop Chrome; the site serves the
// same table either way, but a bare Go UA gets flagged by some CDNs.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Scrape    ScrapeConfig
	Browser   BrowserConfig
	HTTP      HTTPConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ScrapeConfig controls the table scrape.
type ScrapeConfig struct {
	// BaseURL is the page holding the manuscripts table.
	BaseURL string

	// SiteURL is the base for resolving relative hrefs.
	SiteURL string

	// Engine selects the session implementation: "browser" or "http".
	Engine string // default: "browser"

	// RateLimitSeconds is the minimum delay between page loads.
	RateLimitSeconds float64 // default: 2.0

	// RetryDelay is the pause before the single table-location retry.
	RetryDelay time.Duration // default: 2s

	// TableTimeout is the max wait for the manuscripts table to appear.
	TableTimeout time.Duration // default: 20s

	// RowTimeout is the max wait for the table body to populate rows.
	RowTimeout time.Duration // default: 10s
}

// BrowserConfig controls the Rod browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// WindowSize is "width,height" for the browser window.
	WindowSize string // default: "1920,1080"

	// UserAgent overrides the browser's user agent string.
	UserAgent string

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// PageTimeout bounds the row-extraction pass. Every cell read is a
	// DevTools round trip, so a large table makes thousands of them.
	PageTimeout time.Duration // default: 60s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// Stealth injects anti-automation-detection JS into each page.
	Stealth bool // default: true
}

// HTTPConfig controls the plain HTTP fetch client.
type HTTPConfig struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 30s

	// MaxBodySize caps response bodies, in bytes.
	MaxBodySize int64 // default: 10MB

	// UserAgent is sent on every request.
	UserAgent string
}

// ServerConfig controls the HTTP server (serve mode).
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration // default: 10s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys; empty disables auth.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting in serve mode.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per client.
	Burst int // default: 2
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 64

	// DefaultMaxAge is the cache freshness window when a request does
	// not specify one.
	DefaultMaxAge time.Duration // default: 10m
}

// WebhookConfig controls completion notifications.
type WebhookConfig struct {
	// URL receives scrape events; empty disables delivery.
	URL string

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string

	// Timeout is the per-delivery deadline.
	Timeout time.Duration // default: 10s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			BaseURL:          envOr("TICHA_BASE_URL", DefaultBaseURL),
			SiteURL:          envOr("TICHA_SITE_URL", DefaultSiteURL),
			Engine:           envOr("TICHA_ENGINE", "browser"),
			RateLimitSeconds: envFloatOr("TICHA_RATE_LIMIT", 2.0),
			RetryDelay:       envDurationOr("TICHA_RETRY_DELAY", 2*time.Second),
			TableTimeout:     envDurationOr("TICHA_TABLE_TIMEOUT", 20*time.Second),
			RowTimeout:       envDurationOr("TICHA_ROW_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("TICHA_HEADLESS", true),
			NoSandbox:         envBoolOr("TICHA_NO_SANDBOX", true),
			BrowserBin:        os.Getenv("TICHA_BROWSER_BIN"),
			WindowSize:        envOr("TICHA_WINDOW_SIZE", "1920,1080"),
			UserAgent:         envOr("TICHA_USER_AGENT", defaultUserAgent),
			NavigationTimeout: envDurationOr("TICHA_NAV_TIMEOUT", 15*time.Second),
			PageTimeout:       envDurationOr("TICHA_PAGE_TIMEOUT", 60*time.Second),
			BlockedResourceTypes: envSliceOr("TICHA_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			Stealth: envBoolOr("TICHA_STEALTH", true),
		},
		HTTP: HTTPConfig{
			Timeout:     envDurationOr("TICHA_HTTP_TIMEOUT", 30*time.Second),
			MaxBodySize: envInt64Or("TICHA_HTTP_MAX_BODY", 10*1024*1024),
			UserAgent:   envOr("TICHA_USER_AGENT", defaultUserAgent),
		},
		Server: ServerConfig{
			Host:            envOr("TICHA_HOST", "0.0.0.0"),
			Port:            envIntOr("TICHA_PORT", 8080),
			Mode:            envOr("TICHA_MODE", "release"),
			ShutdownTimeout: envDurationOr("TICHA_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("TICHA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TICHA_RATE_RPS", 1.0),
			Burst:             envIntOr("TICHA_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries:    envIntOr("TICHA_CACHE_MAX_ENTRIES", 64),
			DefaultMaxAge: envDurationOr("TICHA_CACHE_MAX_AGE", 10*time.Minute),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("TICHA_WEBHOOK_URL"),
			Secret:  os.Getenv("TICHA_WEBHOOK_SECRET"),
			Timeout: envDurationOr("TICHA_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  envOr("TICHA_LOG_LEVEL", "info"),
			Format: envOr("TICHA_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
