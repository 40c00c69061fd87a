// Package scraper runs the manuscripts-table scrape end to end.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Maclenn77/ticha/driver"
	"github.com/Maclenn77/ticha/fingerprint"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/normalize"
	"github.com/Maclenn77/ticha/ratelimit"
)

// Options tune one scrape run.
type Options struct {
	// TargetURL is the page holding the manuscripts table.
	TargetURL string

	// RateLimit is the minimum interval between page loads.
	RateLimit time.Duration

	// RetryDelay is the pause before the single table-location retry.
	RetryDelay time.Duration
}

// Scraper drives a session from open to close and turns the table into a
// ResultSet. Runs are strictly sequential: one session, one page, no
// parallel work.
type Scraper struct {
	drv  driver.Driver
	opts Options
}

// New builds a Scraper over the given driver.
func New(drv driver.Driver, opts Options) *Scraper {
	return &Scraper{drv: drv, opts: opts}
}

// Scrape runs the whole pipeline and returns every row of the table or
// nothing at all.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Open session       – failure means SESSION_START_FAILED and nothing
//     was ever navigated
//  2. DEFER: close       – teardown runs on every path, success or failure
//  3. Rate limit + navigate
//  4. Locate table       – on TABLE_NOT_FOUND only, wait RetryDelay and do
//     one more rate-limited navigate + locate; a second miss is final
//  5. Extract rows
//  6. Normalize          – the first malformed row aborts the run with no
//     partial results
//
// An empty located table is a success with zero records.
func (s *Scraper) Scrape(ctx context.Context) (*models.ResultSet, error) {
	start := time.Now()
	limiter := ratelimit.New(s.opts.RateLimit)

	slog.Info("scrape starting",
		"url", s.opts.TargetURL,
		"engine", s.drv.Name(),
		"rate_limit", limiter.Interval(),
	)

	// ── 1. Open session ─────────────────────────────────────────────
	session, err := s.drv.Open(ctx)
	if err != nil {
		return nil, coded(err, models.ErrCodeSessionStart, "failed to open session")
	}

	// ── 2. Teardown guard ───────────────────────────────────────────
	defer func() {
		if cerr := session.Close(); cerr != nil {
			slog.Warn("session close failed", "error", cerr)
		}
	}()

	// ── 3. Rate limit, then navigate ────────────────────────────────
	if err := s.loadPage(ctx, session, limiter); err != nil {
		return nil, err
	}

	// ── 4. Locate table, retrying exactly once ──────────────────────
	if err := session.LocateTable(ctx); err != nil {
		if !isTableNotFound(err) {
			return nil, coded(err, models.ErrCodeInternal, "table location failed")
		}
		slog.Warn("table not found, retrying once", "delay", s.opts.RetryDelay)
		select {
		case <-time.After(s.opts.RetryDelay):
		case <-ctx.Done():
			return nil, coded(ctx.Err(), models.ErrCodeTimeout, "retry wait interrupted")
		}
		if err := s.loadPage(ctx, session, limiter); err != nil {
			return nil, err
		}
		if err := session.LocateTable(ctx); err != nil {
			return nil, coded(err, models.ErrCodeTableNotFound, "manuscripts table absent after retry")
		}
	}

	// ── 5. Extract rows ─────────────────────────────────────────────
	raws, err := session.ExtractRows(ctx)
	if err != nil {
		return nil, coded(err, models.ErrCodeInternal, "row extraction failed")
	}

	// ── 6. Normalize, all or nothing ────────────────────────────────
	records, err := normalize.All(raws)
	if err != nil {
		return nil, coded(err, models.ErrCodeRowShape, "row normalization failed")
	}

	res := &models.ResultSet{
		Records:     records,
		SourceURL:   s.opts.TargetURL,
		Engine:      s.drv.Name(),
		Fingerprint: fingerprint.Records(records),
		ScrapedAt:   time.Now().UTC(),
		Duration:    time.Since(start),
	}
	slog.Info("scrape complete",
		"rows", len(records),
		"duration_ms", res.Duration.Milliseconds(),
		"fingerprint", fingerprint.Hex(res.Fingerprint),
	)
	return res, nil
}

// loadPage is one rate-limited navigation. Both the initial load and the
// retry go through here so the minimum interval holds across them.
func (s *Scraper) loadPage(ctx context.Context, session driver.Session, limiter *ratelimit.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "rate limit wait interrupted", err)
	}
	if err := session.Navigate(ctx, s.opts.TargetURL); err != nil {
		return coded(err, models.ErrCodeNavigation, "navigation failed")
	}
	return nil
}

// coded passes through errors that already carry a code and wraps the rest,
// folding context expiry into SCRAPE_TIMEOUT. Every error leaving Scrape
// carries exactly one code.
func coded(err error, code, msg string) error {
	var serr *models.ScrapeError
	if errors.As(err, &serr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	}
	return models.NewScrapeError(code, msg, err)
}

func isTableNotFound(err error) bool {
	var serr *models.ScrapeError
	return errors.As(err, &serr) && serr.Code == models.ErrCodeTableNotFound
}
