package sink

import (
	"os"

	"github.com/tealeg/xlsx/v2"

	"github.com/Maclenn77/ticha/models"
)

// SheetName is the sheet the manuscript rows are written to.
const SheetName = "manuscripts"

// XLSX writes manuscript records as a single-sheet workbook with the same
// column order as the CSV sink.
type XLSX struct{}

func (XLSX) Write(path string, records []models.ManuscriptRecord) error {
	return writeAtomic(path, func(f *os.File) error {
		wb := xlsx.NewFile()
		sheet, err := wb.AddSheet(SheetName)
		if err != nil {
			return models.NewScrapeError(models.ErrCodeOutput, "create sheet", err)
		}

		header := sheet.AddRow()
		for _, col := range models.Columns {
			header.AddCell().SetString(col)
		}
		for _, rec := range records {
			row := sheet.AddRow()
			for _, v := range rec.Fields() {
				row.AddCell().SetString(v)
			}
		}

		if err := wb.Write(f); err != nil {
			return models.NewScrapeError(models.ErrCodeOutput, "write workbook", err)
		}
		return nil
	})
}
