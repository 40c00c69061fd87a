// Package driver hides the page-loading machinery behind a small capability
// surface so the orchestrator, and its tests, never touch a real browser.
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

// Selectors for the manuscripts table. The role filter matches the
// DataTables-enhanced markup; the plain variant covers the server-rendered
// table before (or without) enhancement.
const (
	TableSelector    = "table"
	RowSelector      = "table tbody tr[role='row']"
	PlainRowSelector = "table tbody tr"
	CellSelector     = "td"

	// emptyTableClass marks the placeholder row DataTables renders into
	// an empty table body. It is presentation, not data.
	emptyTableClass = "dataTables_empty"
)

// containsClass reports whether a space-separated class attribute contains
// the given class name.
func containsClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}

// Driver opens scraping sessions. Implementations: the Rod browser driver
// ("browser") and the plain fetch-and-parse driver ("http").
type Driver interface {
	// Name identifies the implementation in logs and results.
	Name() string

	// Open starts a session. It performs no navigation; a failure here
	// carries the SESSION_START_FAILED code.
	Open(ctx context.Context) (Session, error)
}

// Session is one open scraping session. Sessions are single-use and
// sequential; Close is idempotent and must release every resource the
// session owns, whatever state it is in.
type Session interface {
	// Navigate loads the given URL. Failures carry NAVIGATION_FAILED
	// (or SCRAPE_TIMEOUT when the deadline ran out).
	Navigate(ctx context.Context, url string) error

	// LocateTable waits for the manuscripts table's structural signature
	// on the current page. Absence carries TABLE_NOT_FOUND.
	LocateTable(ctx context.Context) error

	// ExtractRows walks the located table's body rows in document order
	// and returns one RawRow per data row: the first cell's text, the
	// first cell's resolved anchor href (empty when absent), then the
	// remaining cells' text.
	ExtractRows(ctx context.Context) ([]models.RawRow, error)

	Close() error
}

// ForEngine returns the driver for an engine name: "browser" (or empty)
// selects Rod, "http" the plain fetcher.
func ForEngine(engine string, cfg *config.Config) (Driver, error) {
	switch engine {
	case "browser", "":
		return NewRod(cfg.Browser, cfg.Scrape), nil
	case "http":
		return NewStatic(cfg.HTTP, cfg.Scrape), nil
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown engine %q", engine), nil)
	}
}
