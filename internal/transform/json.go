package transform

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/paperbase/paperbase/internal/apperr"
)

// parseJSON chunks on structural boundaries: one unit per top-level array
// element or object key, each tagged with its structural pointer so a
// retrieved unit can be traced back into the document.
func (t *Transformer) parseJSON(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperr.ParseFailedf("invalid JSON document")
	}

	root := gjson.ParseBytes(data)

	var units []UnitDraft
	switch {
	case root.IsArray():
		for i, el := range root.Array() {
			content := strings.TrimSpace(el.Raw)
			if content == "" {
				continue
			}
			units = append(units, UnitDraft{
				Content:  content,
				Metadata: map[string]interface{}{"pointer": "/" + strconv.Itoa(i)},
			})
		}
	case root.IsObject():
		root.ForEach(func(key, value gjson.Result) bool {
			content := strings.TrimSpace(key.String() + ": " + value.Raw)
			units = append(units, UnitDraft{
				Content:  content,
				Metadata: map[string]interface{}{"pointer": "/" + key.String()},
			})
			return true
		})
	default:
		// A bare scalar document still yields one unit.
		units = append(units, UnitDraft{
			Content:  strings.TrimSpace(root.Raw),
			Metadata: map[string]interface{}{"pointer": ""},
		})
	}

	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, u.Content)
	}

	return &Result{
		Text:       strings.Join(parts, "\n"),
		Structured: map[string]interface{}{"top_level_units": len(units)},
		Units:      units,
	}, nil
}
