// Package sink persists scraped result sets to tabular files.
package sink

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Maclenn77/ticha/models"
)

// Writer persists a full set of manuscript records.
type Writer interface {
	// Write replaces the file at path with the given records.
	Write(path string, records []models.ManuscriptRecord) error
}

// ForPath selects the output format by file extension: ".xlsx" gets a
// spreadsheet, everything else RFC 4180 CSV.
func ForPath(path string) Writer {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return XLSX{}
	}
	return CSV{}
}

// writeAtomic runs write against a temp file in the destination directory
// and renames it into place, so a failed run never leaves a partial file
// at path.
func writeAtomic(path string, write func(f *os.File) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "create output file", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return models.NewScrapeError(models.ErrCodeOutput, "close output file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return models.NewScrapeError(models.ErrCodeOutput, "replace output file", err)
	}
	return nil
}
