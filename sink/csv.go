package sink

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/Maclenn77/ticha/models"
)

// CSV writes manuscript records as RFC 4180 CSV. The header row is derived
// from the record's struct tags and is present even when the result set is
// empty.
type CSV struct{}

func (CSV) Write(path string, records []models.ManuscriptRecord) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		enc := csvutil.NewEncoder(w)
		if err := enc.EncodeHeader(models.ManuscriptRecord{}); err != nil {
			return models.NewScrapeError(models.ErrCodeOutput, "write csv header", err)
		}
		for i := range records {
			if err := enc.Encode(records[i]); err != nil {
				return models.NewScrapeError(models.ErrCodeOutput, "write csv row", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return models.NewScrapeError(models.ErrCodeOutput, "flush csv", err)
		}
		return nil
	})
}

// ReadManuscripts loads a manuscripts CSV previously written by the CSV
// sink. Columns are matched by header name; unknown columns are ignored.
func ReadManuscripts(path string) ([]models.ManuscriptRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "open input file", err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "read csv header", err)
	}

	var records []models.ManuscriptRecord
	for {
		var rec models.ManuscriptRecord
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "decode csv row", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
