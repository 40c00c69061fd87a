package models

import "time"

// NumFields is the number of fields in a ManuscriptRecord. The first table
// cell contributes two of them (its text and its anchor's href), cells 1-9
// contribute one each.
const NumFields = 11

// Columns lists the output column names in record order. The CSV header is
// exactly this sequence.
var Columns = []string{
	"document_name",
	"document_link",
	"file_type",
	"ticha_id",
	"year",
	"town",
	"archive",
	"doc_type",
	"language",
	"trptn_status",
	"legibility",
}

// RawRow is one table row as extracted, before normalization: position 0 is
// the first cell's visible text, position 1 the absolute href of the first
// cell's anchor (empty when the cell has no link), positions 2-10 the visible
// text of the remaining cells in document order.
type RawRow []string

// ManuscriptRecord is one normalized row of the manuscripts table.
type ManuscriptRecord struct {
	DocumentName string `csv:"document_name" json:"document_name"`
	DocumentLink string `csv:"document_link" json:"document_link"`
	FileType     string `csv:"file_type" json:"file_type"`
	TichaID      string `csv:"ticha_id" json:"ticha_id"`
	Year         string `csv:"year" json:"year"`
	Town         string `csv:"town" json:"town"`
	Archive      string `csv:"archive" json:"archive"`
	DocType      string `csv:"doc_type" json:"doc_type"`
	Language     string `csv:"language" json:"language"`
	TrptnStatus  string `csv:"trptn_status" json:"trptn_status"`
	Legibility   string `csv:"legibility" json:"legibility"`
}

// Fields returns the record's values in column order.
func (r ManuscriptRecord) Fields() []string {
	return []string{
		r.DocumentName,
		r.DocumentLink,
		r.FileType,
		r.TichaID,
		r.Year,
		r.Town,
		r.Archive,
		r.DocType,
		r.Language,
		r.TrptnStatus,
		r.Legibility,
	}
}

// ResultSet is the outcome of one complete table scrape. Records preserves
// the table's row order and is never nil on success; an empty table yields
// an empty slice.
type ResultSet struct {
	Records     []ManuscriptRecord
	SourceURL   string
	Engine      string
	Fingerprint uint64
	ScrapedAt   time.Time
	Duration    time.Duration
}
