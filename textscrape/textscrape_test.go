package textscrape

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

const documentHTML = `<!DOCTYPE html>
<html><body>
<div id="metadata">
  <p>Archive: AGN</p>
  <p>Year: 1675</p>
  <p>Scribe (Escribano): Juan de la Cruz</p>
  <p>A line without separator</p>
  <p>Page Count: 4</p>
</div>
<div id="transcription">
  <p>Primera plana del testamento.</p>
  <p>  </p>
  <p>Segunda plana.</p>
</div>
<div id="interLinear">
  <table>
    <tr><th>zapotec</th><th>gloss</th></tr>
    <tr><td>za</td><td>word</td></tr>
  </table>
  <p>Gloss line one.</p>
</div>
</body></html>`

func serveDocument(t *testing.T, path string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(documentHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(siteURL, format string) *Scraper {
	return New(
		config.HTTPConfig{Timeout: 5 * time.Second, MaxBodySize: 1 << 20, UserAgent: "test"},
		Options{SiteURL: siteURL, Format: format},
	)
}

func TestScrapeDocumentText(t *testing.T) {
	srv := serveDocument(t, "/en/texts/Te675/")
	s := newTestScraper(srv.URL, FormatText)

	doc := s.ScrapeDocument(context.Background(), models.ManuscriptRecord{
		TichaID:      "Te675",
		DocumentLink: "/en/texts/Te675/",
	})

	require.Empty(t, doc.Error)
	assert.Equal(t, srv.URL+"/en/texts/Te675/", doc.URL)

	assert.Equal(t, map[string]string{
		"archive":          "AGN",
		"year":             "1675",
		"scribe_escribano": "Juan de la Cruz",
		"page_count":       "4",
	}, doc.Metadata)

	assert.Equal(t, "Primera plana del testamento.\n\nSegunda plana.", doc.Transcription)
	assert.Equal(t, "Gloss line one.", doc.Interlinear, "text format reads paragraphs only")
	assert.Empty(t, doc.ModernSpanish, "absent section yields empty content")
}

func TestScrapeDocumentMarkdown(t *testing.T) {
	srv := serveDocument(t, "/en/texts/Te675/")
	s := newTestScraper(srv.URL, FormatMarkdown)

	doc := s.ScrapeDocument(context.Background(), models.ManuscriptRecord{
		DocumentLink: "/en/texts/Te675/",
	})

	require.Empty(t, doc.Error)
	assert.Contains(t, doc.Transcription, "Primera plana del testamento.")
	assert.Contains(t, doc.Interlinear, "za", "markdown format keeps table content")
	assert.Contains(t, doc.Interlinear, "|", "tables render as markdown tables")
}

func TestScrapeDocumentFetchFailure(t *testing.T) {
	srv := serveDocument(t, "/en/texts/Te675/")
	s := newTestScraper(srv.URL, FormatText)

	doc := s.ScrapeDocument(context.Background(), models.ManuscriptRecord{
		DocumentLink: "/en/texts/Missing/",
	})

	assert.NotEmpty(t, doc.Error)
	assert.Empty(t, doc.Transcription)
}

func TestScrapeAll(t *testing.T) {
	srv := serveDocument(t, "/en/texts/Te675/")
	s := newTestScraper(srv.URL, FormatText)

	records := []models.ManuscriptRecord{
		{TichaID: "Te675", DocumentLink: "/en/texts/Te675/"},
		{TichaID: "NoLink"},
		{TichaID: "Te999", DocumentLink: "/en/texts/Te999/"},
	}

	docs, stats, err := s.ScrapeAll(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, docs, 2, "records without a link are skipped")

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Scraped)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.WithTranscription)
	assert.Equal(t, 1, stats.WithInterlinear)
	assert.Equal(t, 0, stats.WithModernSpanish)

	assert.Empty(t, docs[0].Error)
	assert.NotEmpty(t, docs[1].Error, "a failed document is kept with its error")
}

func TestScrapeAllMaxDocs(t *testing.T) {
	srv := serveDocument(t, "/en/texts/Te675/")
	s := newTestScraper(srv.URL, FormatText)
	s.opts.MaxDocs = 1

	records := []models.ManuscriptRecord{
		{DocumentLink: "/en/texts/Te675/"},
		{DocumentLink: "/en/texts/Te675/"},
	}

	docs, stats, err := s.ScrapeAll(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, stats.Total)
}

func TestWriteCSV(t *testing.T) {
	docs := []models.DocumentText{
		{
			Record: models.ManuscriptRecord{
				DocumentName: "Testamento de Juana Lopez",
				TichaID:      "Te675",
				Archive:      "from table",
			},
			URL:           "https://ticha.haverford.edu/en/texts/Te675/",
			Transcription: "Primera plana.",
			Metadata: map[string]string{
				"archive":   "AGN (page value)",
				"zz_scribe": "Juan",
				"aa_folios": "4",
			},
		},
		{
			Record: models.ManuscriptRecord{TichaID: "Te999"},
			URL:    "https://ticha.haverford.edu/en/texts/Te999/",
			Error:  "fetch failed",
		},
	}

	path := filepath.Join(t.TempDir(), "texts.csv")
	require.NoError(t, WriteCSV(path, docs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	wantHeader := append([]string{}, models.Columns...)
	wantHeader = append(wantHeader, "url", "scrape_error", "transcription", "interlinear", "modern_spanish", "aa_folios", "zz_scribe")
	assert.Equal(t, wantHeader, rows[0])

	header := rows[0]
	first := rows[1]
	byCol := map[string]string{}
	for i, c := range header {
		byCol[c] = first[i]
	}
	assert.Equal(t, "AGN (page value)", byCol["archive"], "page metadata overrides the table value")
	assert.Equal(t, "Primera plana.", byCol["transcription"])
	assert.Equal(t, "Juan", byCol["zz_scribe"])

	second := rows[2]
	byCol2 := map[string]string{}
	for i, c := range header {
		byCol2[c] = second[i]
	}
	assert.Equal(t, "fetch failed", byCol2["scrape_error"])
	assert.Empty(t, byCol2["zz_scribe"], "missing metadata renders empty")
}
