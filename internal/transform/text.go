package transform

// parseText handles plain-text-like formats (txt, markdown, html): the
// bytes pass through untouched and chunking is the character window.
func (t *Transformer) parseText(data []byte) (*Result, error) {
	normalized, units, err := t.windowUnits(string(data))
	if err != nil {
		return nil, err
	}
	return &Result{Text: normalized, Units: units}, nil
}
