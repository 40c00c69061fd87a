package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maclenn77/ticha/models"
)

func TestField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "Testamento de Juana", "Testamento de Juana"},
		{"leading and trailing", "  Oaxaca  ", "Oaxaca"},
		{"internal run", "Testamento  de   Juana", "Testamento de Juana"},
		{"tabs and newlines", "San\tFrancisco\nCajonos", "San Francisco Cajonos"},
		{"non-breaking space", "Villa Alta", "Villa Alta"},
		{"mixed run", "Sola  \t de Vega", "Sola de Vega"},
		{"only whitespace", " \t\n ", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Field(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Field(got), "Field must be idempotent")
		})
	}
}

func goodRow() models.RawRow {
	return models.RawRow{
		"Testamento de Juana Lopez",
		"https://ticha.haverford.edu/en/texts/Te675/",
		"PDF",
		"Te675",
		"1675",
		"San Jeronimo Tlacochahuaya",
		"Archivo General del Poder Ejecutivo de Oaxaca",
		"Testament",
		"Zapotec",
		"Complete",
		"High",
	}
}

func TestRecord(t *testing.T) {
	t.Run("well formed row maps fields in order", func(t *testing.T) {
		rec, err := Record(goodRow())
		require.NoError(t, err)

		assert.Equal(t, "Testamento de Juana Lopez", rec.DocumentName)
		assert.Equal(t, "https://ticha.haverford.edu/en/texts/Te675/", rec.DocumentLink)
		assert.Equal(t, "PDF", rec.FileType)
		assert.Equal(t, "Te675", rec.TichaID)
		assert.Equal(t, "1675", rec.Year)
		assert.Equal(t, "San Jeronimo Tlacochahuaya", rec.Town)
		assert.Equal(t, "Archivo General del Poder Ejecutivo de Oaxaca", rec.Archive)
		assert.Equal(t, "Testament", rec.DocType)
		assert.Equal(t, "Zapotec", rec.Language)
		assert.Equal(t, "Complete", rec.TrptnStatus)
		assert.Equal(t, "High", rec.Legibility)
	})

	t.Run("fields are trimmed and collapsed", func(t *testing.T) {
		raw := goodRow()
		raw[0] = "  Testamento  de\n\tJuana Lopez "
		raw[4] = " 1675 "

		rec, err := Record(raw)
		require.NoError(t, err)
		assert.Equal(t, "Testamento de Juana Lopez", rec.DocumentName)
		assert.Equal(t, "1675", rec.Year)
	})

	t.Run("missing link cell stays empty", func(t *testing.T) {
		raw := goodRow()
		raw[1] = ""

		rec, err := Record(raw)
		require.NoError(t, err)
		assert.Empty(t, rec.DocumentLink)
	})

	t.Run("short row fails with shape code", func(t *testing.T) {
		short := goodRow()[:9]

		_, err := Record(short)
		require.Error(t, err)

		var serr *models.ScrapeError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, models.ErrCodeRowShape, serr.Code)
		assert.Contains(t, serr.Message, "9")
		assert.Contains(t, serr.Message, "11")
	})

	t.Run("trailing empty extras are discarded", func(t *testing.T) {
		raw := append(goodRow(), "", "  \t ")

		rec, err := Record(raw)
		require.NoError(t, err)
		assert.Equal(t, "High", rec.Legibility)
	})

	t.Run("non-empty extra fails with shape code", func(t *testing.T) {
		raw := append(goodRow(), "surprise column")

		_, err := Record(raw)
		var serr *models.ScrapeError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, models.ErrCodeRowShape, serr.Code)
	})
}

func TestAll(t *testing.T) {
	t.Run("preserves row order", func(t *testing.T) {
		first := goodRow()
		second := goodRow()
		second[3] = "Te676"

		records, err := All([]models.RawRow{first, second})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Te675", records[0].TichaID)
		assert.Equal(t, "Te676", records[1].TichaID)
	})

	t.Run("one bad row yields no partial result", func(t *testing.T) {
		rows := []models.RawRow{goodRow(), goodRow()[:9], goodRow()}

		records, err := All(rows)
		require.Error(t, err)
		assert.Nil(t, records)

		var serr *models.ScrapeError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, models.ErrCodeRowShape, serr.Code)
		assert.Contains(t, serr.Message, "row 1")
	})

	t.Run("empty table yields empty non-nil slice", func(t *testing.T) {
		records, err := All(nil)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestMetadataKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Archive", "archive"},
		{"Archive location", "archive_location"},
		{"Call No.", "call_no"},
		{"Date  Digitized", "date_digitized"},
		{"Scribe(s)", "scribes"},
		{"Año", "año"},
		{"Town (Modern Official)", "town_modern_official"},
		{"  Permission File  ", "permission_file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MetadataKey(tt.in))
		})
	}
}
