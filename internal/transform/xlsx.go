package transform

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/paperbase/paperbase/internal/apperr"
)

// parseXLSX walks every sheet of the workbook and applies per-sheet
// row-group chunking, tagging each unit with its sheet name.
func (t *Transformer) parseXLSX(data []byte) (*Result, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.ParseFailedf("xlsx open: %v", err)
	}
	defer wb.Close()

	var (
		texts     []string
		units     []UnitDraft
		sheetRows = map[string]interface{}{}
	)

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, apperr.ParseFailedf("xlsx sheet %s: %v", sheet, err)
		}

		text, sheetUnits := groupRows(rows, t.rowsPerUnit, map[string]interface{}{
			"sheet": sheet,
		})
		if text != "" {
			texts = append(texts, text)
		}
		units = append(units, sheetUnits...)
		sheetRows[sheet] = len(rows)
	}

	return &Result{
		Text:       strings.Join(texts, "\n"),
		Structured: map[string]interface{}{"sheets": sheetRows},
		Units:      units,
	}, nil
}
