package transform

import (
	"bytes"
	"encoding/csv"

	"github.com/paperbase/paperbase/internal/apperr"
)

func (t *Transformer) parseCSV(data []byte) (*Result, error) {
	return t.parseDelimited(data, ',')
}

func (t *Transformer) parseTSV(data []byte) (*Result, error) {
	return t.parseDelimited(data, '\t')
}

// parseDelimited chunks on row boundaries instead of character windows so a
// record never straddles two units.
func (t *Transformer) parseDelimited(data []byte, delimiter rune) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.ParseFailedf("delimited parse: %v", err)
	}

	// Drop fully empty rows the way the row renderer expects them.
	filtered := rows[:0]
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			filtered = append(filtered, row)
		}
	}

	text, units := groupRows(filtered, t.rowsPerUnit, nil)

	return &Result{
		Text:       text,
		Structured: map[string]interface{}{"rows": len(filtered)},
		Units:      units,
	}, nil
}
