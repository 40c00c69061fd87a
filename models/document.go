package models

// DocumentText is the scraped content of one manuscript's own page.
type DocumentText struct {
	// Record is the manuscripts-table row this document came from.
	Record ManuscriptRecord

	// URL is the resolved absolute page URL.
	URL string

	// Error holds the per-document failure, empty on success. A failed
	// document does not stop the run; its row is kept with this field set.
	Error string

	// Metadata holds the key/value pairs from the page's metadata panel,
	// keys normalized to snake_case.
	Metadata map[string]string

	Transcription string
	Interlinear   string
	ModernSpanish string
}

// TextStats summarizes a text-scraping run for the closing log line.
type TextStats struct {
	Total             int
	Scraped           int
	Failed            int
	WithTranscription int
	WithInterlinear   int
	WithModernSpanish int
}

// Citation describes how to credit the scraped source.
type Citation struct {
	URL         string `json:"url"`
	AccessDate  string `json:"access_date"`
	Source      string `json:"source"`
	Citation    string `json:"citation"`
	ProjectInfo string `json:"project_info"`
}
