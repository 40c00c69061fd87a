package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Maclenn77/ticha/cache"
	"github.com/Maclenn77/ticha/citation"
	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/driver"
	"github.com/Maclenn77/ticha/fingerprint"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/scraper"
	"github.com/Maclenn77/ticha/webhook"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults (empty body = all defaults).
//  2. Cache lookup (url+engine key, request max_age).
//  3. Build the requested driver and run the table scrape.
//  4. Respond with records, citation and fingerprint; store in cache.
//
// When a webhook URL is configured, fresh scrapes (never cache hits) emit a
// completion or failure event asynchronously.
func Scrape(cfg *config.Config, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeAPIRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, models.ScrapeAPIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults(cfg.Scrape.Engine, cfg.Scrape.RateLimitSeconds)

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(cfg.Scrape.BaseURL, req.Engine)
		maxAge := time.Duration(req.MaxAge) * time.Second
		if cc != nil {
			if res, hit := cc.Get(cacheKey, maxAge); hit {
				c.JSON(http.StatusOK, scrapeResponse(res, "hit", models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}))
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		runCfg := *cfg
		if req.Headless != nil {
			runCfg.Browser.Headless = *req.Headless
		}
		drv, err := driver.ForEngine(req.Engine, &runCfg)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		scrapeStart := time.Now()
		res, err := scraper.New(drv, scraper.Options{
			TargetURL:  cfg.Scrape.BaseURL,
			RateLimit:  time.Duration(req.RateLimitSeconds * float64(time.Second)),
			RetryDelay: cfg.Scrape.RetryDelay,
		}).Scrape(c.Request.Context())
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		runID := c.GetString("request_id")

		if err != nil {
			if cfg.Webhook.URL != "" {
				var serr *models.ScrapeError
				if !errors.As(err, &serr) {
					serr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), nil)
				}
				webhook.DeliverAsync(cfg.Webhook, webhook.Failed(runID, cfg.Scrape.BaseURL, serr))
			}
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		// ── 4. Respond + cache store ────────────────────────────────
		if cfg.Webhook.URL != "" {
			cit := citation.InfoAt(res.SourceURL, res.ScrapedAt)
			webhook.DeliverAsync(cfg.Webhook, webhook.Completed(runID, res, cit))
		}
		cacheStatus := ""
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, res)
			cacheStatus = "miss"
		}
		c.JSON(http.StatusOK, scrapeResponse(res, cacheStatus, models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			ScrapeMs: scrapeMs,
		}))
	}
}

// scrapeResponse builds the success payload for a result set. The citation's
// access date is the scrape time, so cached results stay honest.
func scrapeResponse(res *models.ResultSet, cacheStatus string, timing models.TimingInfo) models.ScrapeAPIResponse {
	cit := citation.InfoAt(res.SourceURL, res.ScrapedAt)
	return models.ScrapeAPIResponse{
		Success:     true,
		Engine:      res.Engine,
		Count:       len(res.Records),
		Fingerprint: fingerprint.Hex(res.Fingerprint),
		Records:     res.Records,
		Citation:    &cit,
		ScrapedAt:   res.ScrapedAt,
		Timing:      timing,
		CacheStatus: cacheStatus,
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeAPIResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes. Upstream
// page problems (unreachable, table missing, malformed rows) are 502s: the
// service is fine, the source is not.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeTableNotFound, models.ErrCodeRowShape:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
