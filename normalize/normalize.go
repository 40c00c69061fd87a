// Package normalize converts raw extracted rows into manuscript records.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Maclenn77/ticha/models"
)

var (
	// whitespaceRun matches any run of whitespace, including the
	// Unicode space separators (NBSP shows up in rendered cells).
	whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

	// keySeparators and nonWordChars drive metadata-label snake_casing.
	keySeparators  = regexp.MustCompile(`[\s\-.]+`)
	nonWordChars   = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// Field trims leading and trailing whitespace and collapses every internal
// whitespace run to a single space. Applying it twice is a no-op.
func Field(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Record converts one raw table row into a ManuscriptRecord, normalizing
// every field. It fails with a ROW_SHAPE_MISMATCH error when the row has
// fewer than models.NumFields values, or when any value past that count is
// non-empty; trailing empty extras are discarded. Field order and content
// are otherwise preserved exactly.
func Record(raw models.RawRow) (models.ManuscriptRecord, error) {
	if len(raw) < models.NumFields {
		return models.ManuscriptRecord{}, models.NewScrapeError(
			models.ErrCodeRowShape,
			fmt.Sprintf("row has %d values, want %d", len(raw), models.NumFields),
			nil,
		)
	}
	for i, extra := range raw[models.NumFields:] {
		if Field(extra) != "" {
			return models.ManuscriptRecord{}, models.NewScrapeError(
				models.ErrCodeRowShape,
				fmt.Sprintf("unexpected non-empty value at position %d", models.NumFields+i),
				nil,
			)
		}
	}

	f := make([]string, models.NumFields)
	for i := range f {
		f[i] = Field(raw[i])
	}
	return models.ManuscriptRecord{
		DocumentName: f[0],
		DocumentLink: f[1],
		FileType:     f[2],
		TichaID:      f[3],
		Year:         f[4],
		Town:         f[5],
		Archive:      f[6],
		DocType:      f[7],
		Language:     f[8],
		TrptnStatus:  f[9],
		Legibility:   f[10],
	}, nil
}

// All normalizes a whole extracted table. The first malformed row aborts
// with its error and no partial result.
func All(rows []models.RawRow) ([]models.ManuscriptRecord, error) {
	records := make([]models.ManuscriptRecord, 0, len(rows))
	for i, raw := range rows {
		rec, err := Record(raw)
		if err != nil {
			var serr *models.ScrapeError
			if errors.As(err, &serr) {
				// Keep the code, add the row position.
				return nil, models.NewScrapeError(serr.Code,
					fmt.Sprintf("row %d: %s", i, serr.Message), serr.Err)
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// MetadataKey normalizes a metadata panel label into a snake_case column
// name: "Archive location" -> "archive_location", "Call No." -> "call_no".
func MetadataKey(label string) string {
	k := strings.ToLower(strings.TrimSpace(label))
	k = keySeparators.ReplaceAllString(k, "_")
	k = nonWordChars.ReplaceAllString(k, "")
	k = underscoreRuns.ReplaceAllString(k, "_")
	return strings.Trim(k, "_")
}
