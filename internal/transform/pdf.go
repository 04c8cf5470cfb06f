package transform

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/paperbase/paperbase/internal/apperr"
)

// parsePDF extracts plain text from a PDF. A scanned PDF with no embedded
// text layer is not an error: it yields an empty result with zero units.
func (t *Transformer) parsePDF(data []byte) (result *Result, err error) {
	// The xref parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = apperr.ParseFailedf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.ParseFailedf("pdf open: %v", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, apperr.ParseFailedf("pdf text extraction: %v", err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, apperr.ParseFailedf("pdf text read: %v", err)
	}

	normalized, units, err := t.windowUnits(string(raw))
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:       normalized,
		Structured: map[string]interface{}{"pages": reader.NumPage()},
		Units:      units,
	}, nil
}
