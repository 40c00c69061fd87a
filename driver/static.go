package driver

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/fetch"
	"github.com/Maclenn77/ticha/models"
)

// Selectors compiled once; all are evaluated within the table's subtree.
var (
	roleRowSel  = mustSel("tbody tr[role='row']")
	plainRowSel = mustSel("tbody tr")
	cellSel     = mustSel("td")
	anchorSel   = mustSel("a")
)

func mustSel(s string) cascadia.Sel {
	sel, err := cascadia.Parse(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// StaticDriver scrapes without a browser: one GET, one parse. It serves
// environments with no Chrome available. The DataTables enhancement never
// runs under it, so it reads the server-rendered table markup directly.
type StaticDriver struct {
	httpCfg   config.HTTPConfig
	scrapeCfg config.ScrapeConfig
}

// NewStatic builds the http driver from config.
func NewStatic(httpCfg config.HTTPConfig, scrapeCfg config.ScrapeConfig) *StaticDriver {
	return &StaticDriver{httpCfg: httpCfg, scrapeCfg: scrapeCfg}
}

func (d *StaticDriver) Name() string { return "http" }

// Open prepares the fetch client. Rate limiting stays with the caller, so
// the client gets no limiter of its own here.
func (d *StaticDriver) Open(ctx context.Context) (Session, error) {
	return &staticSession{
		client: fetch.NewClient(d.httpCfg, nil),
	}, nil
}

type staticSession struct {
	client  *fetch.Client
	doc     *goquery.Document
	pageURL string
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	page, err := s.client.GetHTML(ctx, url)
	if err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return models.NewScrapeError(
			models.ErrCodeNavigation,
			"failed to parse page HTML",
			err,
		)
	}
	s.doc = doc
	s.pageURL = page.FinalURL
	return nil
}

// LocateTable has nothing to wait for: the fetched markup is final.
func (s *staticSession) LocateTable(ctx context.Context) error {
	if s.doc == nil {
		return models.NewScrapeError(
			models.ErrCodeInternal,
			"no page loaded",
			nil,
		)
	}
	if s.doc.Find(TableSelector).Length() == 0 {
		return models.NewScrapeError(
			models.ErrCodeTableNotFound,
			"manuscripts table not present in page",
			nil,
		)
	}
	return nil
}

func (s *staticSession) ExtractRows(ctx context.Context) ([]models.RawRow, error) {
	table := s.doc.Find(TableSelector).First()
	if table.Length() == 0 || len(table.Nodes) == 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeTableNotFound,
			"manuscripts table not present in page",
			nil,
		)
	}

	tableNode := table.Nodes[0]
	rows := cascadia.QueryAll(tableNode, roleRowSel)
	if len(rows) == 0 {
		rows = cascadia.QueryAll(tableNode, plainRowSel)
	}

	out := make([]models.RawRow, 0, len(rows))
	for _, row := range rows {
		cells := cascadia.QueryAll(row, cellSel)
		if isStaticPlaceholderRow(cells) {
			continue
		}

		raw := make(models.RawRow, 0, len(cells)+1)
		for i, cell := range cells {
			raw = append(raw, nodeText(cell))
			if i == 0 {
				raw = append(raw, s.firstCellHref(cell))
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

func (s *staticSession) firstCellHref(cell *html.Node) string {
	a := cascadia.Query(cell, anchorSel)
	if a == nil {
		return ""
	}
	return fetch.ResolveURL(s.pageURL, nodeAttr(a, "href"))
}

// isStaticPlaceholderRow mirrors isRodPlaceholderRow for parsed markup.
func isStaticPlaceholderRow(cells []*html.Node) bool {
	return len(cells) == 1 && containsClass(nodeAttr(cells[0], "class"), emptyTableClass)
}

func (s *staticSession) Close() error { return nil }

// nodeText returns the concatenated text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// nodeAttr returns the value of the named attribute, "" when absent.
func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
