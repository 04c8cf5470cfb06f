package transform

import (
	"strings"

	"github.com/paperbase/paperbase/internal/apperr"
)

const (
	// DefaultChunkSize is the window length in characters for free text.
	DefaultChunkSize = 500

	// DefaultOverlap is how many characters consecutive windows share.
	DefaultOverlap = 50

	// DefaultRowsPerUnit groups tabular rows so each record stays whole
	// inside one unit.
	DefaultRowsPerUnit = 20
)

// NormalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WindowChunks slides a fixed window of chunkSize runes over text, advancing
// chunkSize-overlap per step. overlap must be strictly smaller than
// chunkSize so every step makes forward progress.
func WindowChunks(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, apperr.InvalidArgumentf("chunk size %d must be positive", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, apperr.InvalidArgumentf("overlap %d must be in [0, %d)", overlap, chunkSize)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	stride := chunkSize - overlap
	chunks := make([]string, 0, len(runes)/stride+1)

	for start := 0; start < len(runes); start += stride {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks, nil
}

// windowUnits turns free text into window-chunked unit drafts after
// whitespace normalization.
func (t *Transformer) windowUnits(text string) (string, []UnitDraft, error) {
	normalized := NormalizeWhitespace(text)

	chunks, err := WindowChunks(normalized, t.chunkSize, t.overlap)
	if err != nil {
		return "", nil, err
	}

	units := make([]UnitDraft, 0, len(chunks))
	for _, c := range chunks {
		units = append(units, UnitDraft{Content: c})
	}
	return normalized, units, nil
}

// groupRows renders rows as pipe-joined lines and groups a fixed number of
// rows per unit. extra is merged into every unit's metadata.
func groupRows(rows [][]string, rowsPerUnit int, extra map[string]interface{}) (string, []UnitDraft) {
	if rowsPerUnit <= 0 {
		rowsPerUnit = DefaultRowsPerUnit
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " | "))
	}

	var units []UnitDraft
	for start := 0; start < len(lines); start += rowsPerUnit {
		end := start + rowsPerUnit
		if end > len(lines) {
			end = len(lines)
		}

		content := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if content == "" {
			continue
		}

		md := map[string]interface{}{
			"row_start": start,
			"row_end":   end - 1,
		}
		for k, v := range extra {
			md[k] = v
		}
		units = append(units, UnitDraft{Content: content, Metadata: md})
	}

	return strings.Join(lines, "\n"), units
}
