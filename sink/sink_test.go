package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/Maclenn77/ticha/models"
)

const wantHeader = "document_name,document_link,file_type,ticha_id,year,town,archive,doc_type,language,trptn_status,legibility"

func sampleRecords() []models.ManuscriptRecord {
	return []models.ManuscriptRecord{
		{
			DocumentName: "Testamento de Juana Lopez",
			DocumentLink: "https://ticha.haverford.edu/en/texts/Te675/",
			FileType:     "PDF",
			TichaID:      "Te675",
			Year:         "1675",
			Town:         "San Jeronimo Tlacochahuaya",
			Archive:      "Archivo General del Poder Ejecutivo de Oaxaca",
			DocType:      "Testament",
			Language:     "Zapotec",
			TrptnStatus:  "Complete",
			Legibility:   "High",
		},
		{
			DocumentName: `Memoria, "borrador"`,
			TichaID:      "Te700",
			Year:         "1700",
		},
	}
}

func TestForPath(t *testing.T) {
	assert.IsType(t, XLSX{}, ForPath("out.xlsx"))
	assert.IsType(t, XLSX{}, ForPath("OUT.XLSX"))
	assert.IsType(t, CSV{}, ForPath("out.csv"))
	assert.IsType(t, CSV{}, ForPath("out"))
}

func TestCSVHeaderExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, CSV{}.Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1, "empty result set writes the header and nothing else")
	assert.Equal(t, wantHeader, lines[0])
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	want := sampleRecords()
	require.NoError(t, CSV{}.Write(path, want))

	got, err := ReadManuscripts(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCSVQuotesEmbeddedDelimiters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, CSV{}.Write(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Memoria, ""borrador"""`)
}

func TestCSVWriteReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, CSV{}.Write(path, sampleRecords()))

	got, err := ReadManuscripts(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReadManuscriptsMissingFile(t *testing.T) {
	_, err := ReadManuscripts(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeInvalidInput, serr.Code)
}

func TestXLSXWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	want := sampleRecords()
	require.NoError(t, XLSX{}.Write(path, want))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok, "workbook must contain the manuscripts sheet")
	require.Len(t, sheet.Rows, 3)

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = cell.String()
	}
	assert.Equal(t, models.Columns, header)

	first := make([]string, len(sheet.Rows[1].Cells))
	for i, cell := range sheet.Rows[1].Cells {
		first[i] = cell.String()
	}
	assert.Equal(t, want[0].Fields(), first)
}
