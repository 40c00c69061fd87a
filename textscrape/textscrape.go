// Package textscrape fetches individual manuscript pages and extracts the
// metadata panel and the transcription, interlinear and modern Spanish
// sections.
package textscrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/fetch"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/normalize"
	"github.com/Maclenn77/ticha/ratelimit"
)

// Output formats for the text sections.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Section container ids on a manuscript page. interLinear keeps the site's
// camelCase id.
const (
	metadataSel     = "div#metadata p"
	transcriptionID = "transcription"
	interlinearID   = "interLinear"
	modernSpanishID = "modern_spanish"
)

// Options configures a text-scraping run.
type Options struct {
	// SiteURL resolves relative document links.
	SiteURL string

	// RateLimit is the minimum interval between page fetches.
	RateLimit time.Duration

	// MaxDocs caps how many linked documents are fetched; 0 fetches all.
	MaxDocs int

	// Format is FormatText or FormatMarkdown.
	Format string
}

// Scraper fetches manuscript pages one at a time over plain HTTP.
type Scraper struct {
	client *fetch.Client
	opts   Options
	conv   *converter.Converter
}

// New builds a Scraper. The rate limiter is attached to the HTTP client, so
// every page fetch waits out the configured interval.
func New(httpCfg config.HTTPConfig, opts Options) *Scraper {
	s := &Scraper{
		client: fetch.NewClient(httpCfg, ratelimit.New(opts.RateLimit)),
		opts:   opts,
	}
	if opts.Format == FormatMarkdown {
		s.conv = newConverter()
	}
	return s
}

// ScrapeAll fetches the page behind every record that carries a document
// link, honoring MaxDocs. A document that fails is kept with its error set
// and the run continues; only context cancellation stops it.
func (s *Scraper) ScrapeAll(ctx context.Context, records []models.ManuscriptRecord) ([]models.DocumentText, models.TextStats, error) {
	linked := make([]models.ManuscriptRecord, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.DocumentLink) != "" {
			linked = append(linked, rec)
		}
	}
	if s.opts.MaxDocs > 0 && len(linked) > s.opts.MaxDocs {
		linked = linked[:s.opts.MaxDocs]
	}

	stats := models.TextStats{Total: len(linked)}
	docs := make([]models.DocumentText, 0, len(linked))
	slog.Info("scraping document texts", "documents", len(linked), "format", s.opts.Format)

	for i, rec := range linked {
		if err := ctx.Err(); err != nil {
			return docs, stats, models.NewScrapeError(models.ErrCodeTimeout, "text scrape interrupted", err)
		}

		doc := s.ScrapeDocument(ctx, rec)
		docs = append(docs, doc)

		if doc.Error != "" {
			stats.Failed++
			slog.Warn("document scrape failed", "url", doc.URL, "error", doc.Error)
		} else {
			stats.Scraped++
			if doc.Transcription != "" {
				stats.WithTranscription++
			}
			if doc.Interlinear != "" {
				stats.WithInterlinear++
			}
			if doc.ModernSpanish != "" {
				stats.WithModernSpanish++
			}
		}

		if (i+1)%10 == 0 {
			slog.Info("text scrape progress", "done", i+1, "total", len(linked))
		}
	}

	return docs, stats, nil
}

// ScrapeDocument fetches one manuscript page. Failures are reported in the
// returned document's Error field, never as a Go error, so one bad page
// cannot abort a batch.
func (s *Scraper) ScrapeDocument(ctx context.Context, rec models.ManuscriptRecord) models.DocumentText {
	doc := models.DocumentText{
		Record: rec,
		URL:    fetch.ResolveURL(s.opts.SiteURL, rec.DocumentLink),
	}

	page, err := s.client.GetHTML(ctx, doc.URL)
	if err != nil {
		doc.Error = err.Error()
		return doc
	}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		doc.Error = fmt.Sprintf("parse html: %v", err)
		return doc
	}

	doc.Metadata = extractMetadata(root)
	doc.Transcription = s.sectionContent(root, transcriptionID)
	doc.Interlinear = s.sectionContent(root, interlinearID)
	doc.ModernSpanish = s.sectionContent(root, modernSpanishID)

	slog.Debug("document scraped", "url", doc.URL, "metadata_fields", len(doc.Metadata))
	return doc
}

// ScrapeURL fetches a single document page by URL, without a source record.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string) models.DocumentText {
	return s.ScrapeDocument(ctx, models.ManuscriptRecord{DocumentLink: rawURL})
}

// extractMetadata reads the metadata panel's <p> lines. Each line is one
// "Label: value" pair; lines without a colon carry no pair and are skipped.
func extractMetadata(root *goquery.Document) map[string]string {
	meta := map[string]string{}
	root.Find(metadataSel).Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		label, value, found := strings.Cut(text, ":")
		if !found {
			slog.Debug("metadata line without separator", "text", text)
			return
		}
		key := normalize.MetadataKey(label)
		if key == "" {
			return
		}
		meta[key] = strings.TrimSpace(value)
	})
	return meta
}

// sectionContent renders one text section. Text format joins the section's
// paragraph texts with blank lines, preserving line breaks inside a
// paragraph; markdown format converts the section's HTML. A missing or
// empty section yields "".
func (s *Scraper) sectionContent(root *goquery.Document, divID string) string {
	sel := root.Find("div#" + divID)
	if sel.Length() == 0 {
		return ""
	}

	if s.conv != nil {
		html, err := sel.First().Html()
		if err != nil {
			slog.Warn("section html render failed", "div", divID, "error", err)
			return ""
		}
		md, err := toMarkdown(s.conv, html, s.opts.SiteURL)
		if err != nil {
			slog.Warn("markdown conversion failed", "div", divID, "error", err)
			return ""
		}
		return strings.TrimSpace(md)
	}

	var paragraphs []string
	sel.First().Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

// Fixed columns appended after the manuscript columns in the texts CSV.
var textColumns = []string{"url", "scrape_error", "transcription", "interlinear", "modern_spanish"}

// WriteCSV writes the scraped documents to path. The header is the
// manuscript columns, the fixed document columns, then every metadata key
// seen across the batch in sorted order. A metadata key that matches an
// existing column overwrites that column's value instead of duplicating
// the header.
func WriteCSV(path string, docs []models.DocumentText) error {
	fixed := make([]string, 0, len(models.Columns)+len(textColumns))
	fixed = append(fixed, models.Columns...)
	fixed = append(fixed, textColumns...)

	fixedSet := make(map[string]bool, len(fixed))
	for _, c := range fixed {
		fixedSet[c] = true
	}
	metaKeys := map[string]bool{}
	for _, d := range docs {
		for k := range d.Metadata {
			if !fixedSet[k] {
				metaKeys[k] = true
			}
		}
	}
	metaCols := make([]string, 0, len(metaKeys))
	for k := range metaKeys {
		metaCols = append(metaCols, k)
	}
	sort.Strings(metaCols)
	columns := append(fixed, metaCols...)

	f, err := os.Create(path)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "create output file", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "write csv header", err)
	}
	for _, d := range docs {
		if err := w.Write(docRow(d, columns)); err != nil {
			return models.NewScrapeError(models.ErrCodeOutput, "write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "flush csv", err)
	}
	return nil
}

func docRow(d models.DocumentText, columns []string) []string {
	vals := make(map[string]string, len(columns))
	fields := d.Record.Fields()
	for i, c := range models.Columns {
		vals[c] = fields[i]
	}
	vals["url"] = d.URL
	vals["scrape_error"] = d.Error
	vals["transcription"] = d.Transcription
	vals["interlinear"] = d.Interlinear
	vals["modern_spanish"] = d.ModernSpanish
	for k, v := range d.Metadata {
		vals[k] = v
	}

	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = vals[c]
	}
	return row
}
