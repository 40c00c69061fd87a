package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/textscrape"
)

// Document returns a handler for POST /api/v1/document: a single manuscript
// page's metadata and text sections, fetched over plain HTTP.
func Document(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.DocumentAPIRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.DocumentAPIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if req.Format == "" {
			req.Format = textscrape.FormatText
		}

		// ── 2. Fetch and extract ────────────────────────────────────
		ts := textscrape.New(cfg.HTTP, textscrape.Options{
			SiteURL: cfg.Scrape.SiteURL,
			Format:  req.Format,
		})
		scrapeStart := time.Now()
		doc := ts.ScrapeURL(c.Request.Context(), req.URL)
		timing := models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			ScrapeMs: time.Since(scrapeStart).Milliseconds(),
		}

		if doc.Error != "" {
			serr := models.NewScrapeError(models.ErrCodeNavigation, doc.Error, nil)
			c.JSON(mapErrorToStatus(serr), models.DocumentAPIResponse{
				Success: false,
				URL:     doc.URL,
				Error:   serr.ToDetail(),
				Timing:  timing,
			})
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.DocumentAPIResponse{
			Success:       true,
			URL:           doc.URL,
			Format:        req.Format,
			Metadata:      doc.Metadata,
			Transcription: doc.Transcription,
			Interlinear:   doc.Interlinear,
			ModernSpanish: doc.ModernSpanish,
			Timing:        timing,
		})
	}
}
