package models

import "time"

// ScrapeAPIRequest is the payload for POST /api/v1/scrape.
type ScrapeAPIRequest struct {
	// Engine selects the session implementation.
	// "browser" (default): headless Chrome. "http": plain fetch + parse.
	Engine string `json:"engine,omitempty" binding:"omitempty,oneof=browser http"`

	// RateLimitSeconds is the minimum delay between page loads.
	// Default: the server's configured value (2.0 unless overridden).
	RateLimitSeconds float64 `json:"rate_limit_seconds,omitempty" binding:"omitempty,min=0,max=60"`

	// Headless toggles the browser window. Only meaningful with the
	// browser engine. Unset keeps the server's configured value.
	Headless *bool `json:"headless,omitempty"`

	// MaxAge is the oldest acceptable cached result in seconds.
	// 0 disables the cache for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=86400"`
}

// Defaults applies default values to unset fields. Headless stays nil when
// unset so the server's configured value wins.
func (r *ScrapeAPIRequest) Defaults(engine string, rateLimitSeconds float64) {
	if r.Engine == "" {
		r.Engine = engine
	}
	if r.RateLimitSeconds == 0 {
		r.RateLimitSeconds = rateLimitSeconds
	}
}

// ScrapeAPIResponse is the response for POST /api/v1/scrape.
type ScrapeAPIResponse struct {
	// Success indicates whether the scrape completed without errors.
	Success bool `json:"success"`

	// Engine is the session implementation that produced the result.
	Engine string `json:"engine,omitempty"`

	// Count is the number of manuscript records extracted.
	Count int `json:"count"`

	// Fingerprint is the hex simhash of the result set; consumers can
	// compare it across runs to detect inventory changes.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Records holds the normalized rows in table order.
	Records []ManuscriptRecord `json:"records,omitempty"`

	// Citation credits the scraped source.
	Citation *Citation `json:"citation,omitempty"`

	// ScrapedAt is when the result set was produced (cache-aware).
	ScrapedAt time.Time `json:"scraped_at,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// DocumentAPIRequest is the payload for POST /api/v1/document.
type DocumentAPIRequest struct {
	// URL is the manuscript page to fetch. Required. Relative paths are
	// resolved against the configured site URL.
	URL string `json:"url" binding:"required"`

	// Format controls the text sections' format.
	// Allowed: "text" (default), "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown"`
}

// DocumentAPIResponse is the response for POST /api/v1/document.
type DocumentAPIResponse struct {
	Success       bool              `json:"success"`
	URL           string            `json:"url"`
	Format        string            `json:"format,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Transcription string            `json:"transcription,omitempty"`
	Interlinear   string            `json:"interlinear,omitempty"`
	ModernSpanish string            `json:"modern_spanish,omitempty"`
	Timing        TimingInfo        `json:"timing"`
	Error         *ErrorDetail      `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent serving a request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ScrapeMs is the time spent inside the scrape itself, zero on a
	// cache hit.
	ScrapeMs int64 `json:"scrape_ms"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
