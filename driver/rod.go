package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/fetch"
	"github.com/Maclenn77/ticha/models"
)

// RodDriver opens real Chrome sessions through the DevTools protocol.
type RodDriver struct {
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScrapeConfig
}

// NewRod builds the browser driver from config.
func NewRod(browserCfg config.BrowserConfig, scrapeCfg config.ScrapeConfig) *RodDriver {
	return &RodDriver{browserCfg: browserCfg, scrapeCfg: scrapeCfg}
}

func (d *RodDriver) Name() string { return "browser" }

// Open launches Chrome, connects a control session and prepares a single
// page: stealth JS, extra headers and the resource-blocking router are all
// installed here because they only take effect for navigations that happen
// after they are in place.
func (d *RodDriver) Open(ctx context.Context) (Session, error) {
	l := launcher.New().
		Headless(d.browserCfg.Headless).
		NoSandbox(d.browserCfg.NoSandbox)

	if d.browserCfg.BrowserBin != "" {
		l = l.Bin(d.browserCfg.BrowserBin)
	}

	// ── Stealth and stability flags ──────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	if d.browserCfg.WindowSize != "" {
		l.Set(flags.Flag("window-size"), d.browserCfg.WindowSize)
	}
	if d.browserCfg.UserAgent != "" {
		l.Set(flags.Flag("user-agent"), d.browserCfg.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeSessionStart,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeSessionStart,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionStart,
			"failed to open page",
			err,
		)
	}

	// Stealth JS masks navigator.webdriver and friends.
	if d.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// A browser sends Accept-Language; a bare CDP session does not.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(page)

	router := blockResources(page, d.browserCfg.BlockedResourceTypes)

	return &rodSession{
		browser:        browser,
		page:           page,
		router:         router,
		navTimeout:     d.browserCfg.NavigationTimeout,
		tableTimeout:   d.scrapeCfg.TableTimeout,
		rowTimeout:     d.scrapeCfg.RowTimeout,
		extractTimeout: d.browserCfg.PageTimeout,
	}, nil
}

// rodSession drives one page in one launched browser.
type rodSession struct {
	browser        *rod.Browser
	page           *rod.Page
	router         *rod.HijackRouter
	navTimeout     time.Duration
	tableTimeout   time.Duration
	rowTimeout     time.Duration
	extractTimeout time.Duration

	// pageURL is the post-navigation location, the base for resolving
	// relative hrefs.
	pageURL string

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	p := s.page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "page load did not finish")
	}
	// DataTables rewrites the table after load; give the DOM a moment
	// to settle. Not converging is fine, the row wait covers the rest.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}

	s.pageURL = url
	if loc := evalStringOrEmpty(p, `() => window.location.href`); loc != "" {
		s.pageURL = loc
	}
	return nil
}

func (s *rodSession) LocateTable(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.tableTimeout)
	defer cancel()

	// Element blocks until the selector appears or the deadline hits.
	if _, err := s.page.Context(waitCtx).Element(TableSelector); err != nil {
		if ctx.Err() != nil {
			return categorizeError(ctx.Err(), "table wait interrupted")
		}
		return models.NewScrapeError(
			models.ErrCodeTableNotFound,
			"manuscripts table did not appear",
			err,
		)
	}

	// Rows render after DataTables initializes. An empty inventory is
	// legal, so running out the clock here is not an error.
	rowCtx, cancel2 := context.WithTimeout(ctx, s.rowTimeout)
	defer cancel2()
	if err := s.page.Context(rowCtx).WaitElementsMoreThan(PlainRowSelector, 0); err != nil {
		slog.Debug("table body did not populate, treating table as empty",
			"error", err,
		)
	}
	return nil
}

func (s *rodSession) ExtractRows(ctx context.Context) ([]models.RawRow, error) {
	// Elements found through p inherit its context, so this deadline
	// covers every cell read below.
	extractCtx, cancel := context.WithTimeout(ctx, s.extractTimeout)
	defer cancel()
	p := s.page.Context(extractCtx)

	rows, err := p.Elements(RowSelector)
	if err != nil {
		return nil, categorizeError(err, "failed to query table rows")
	}
	if len(rows) == 0 {
		// Role attributes are added by DataTables; fall back to the
		// plain markup.
		if rows, err = p.Elements(PlainRowSelector); err != nil {
			return nil, categorizeError(err, "failed to query table rows")
		}
	}

	out := make([]models.RawRow, 0, len(rows))
	for _, row := range rows {
		cells, err := row.Elements(CellSelector)
		if err != nil {
			return nil, categorizeError(err, "failed to query row cells")
		}
		if isRodPlaceholderRow(cells) {
			continue
		}

		raw := make(models.RawRow, 0, len(cells)+1)
		for i, cell := range cells {
			text, err := cell.Text()
			if err != nil {
				return nil, categorizeError(err, "failed to read cell text")
			}
			raw = append(raw, text)
			if i == 0 {
				raw = append(raw, s.firstCellHref(cell))
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

// firstCellHref reads the document link out of the name cell, resolved to
// an absolute URL. Cells without an anchor yield "".
func (s *rodSession) firstCellHref(cell *rod.Element) string {
	has, a, err := cell.Has("a")
	if err != nil || !has {
		return ""
	}
	href, err := a.Attribute("href")
	if err != nil || href == nil {
		return ""
	}
	return fetch.ResolveURL(s.pageURL, *href)
}

// isRodPlaceholderRow reports whether the row is the single-cell
// "No data available" filler DataTables puts into an empty table.
func isRodPlaceholderRow(cells rod.Elements) bool {
	if len(cells) != 1 {
		return false
	}
	cls, err := cells[0].Attribute("class")
	return err == nil && cls != nil && containsClass(*cls, emptyTableClass)
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		s.closeErr = s.browser.Close()
	})
	return s.closeErr
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw driver errors into typed ScrapeErrors so the
// layers above can tell timeouts from genuine load failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
