package transform

import (
	"github.com/otiai10/gosseract/v2"

	"github.com/paperbase/paperbase/internal/apperr"
)

// parseImage runs OCR over a raster image and chunks the recognized text
// like free text. The engine's mean word confidence is recorded in the side
// channel so callers can judge how trustworthy the extraction is.
func (t *Transformer) parseImage(data []byte) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, apperr.ParseFailedf("ocr image load: %v", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, apperr.ParseFailedf("ocr: %v", err)
	}

	confidence := meanConfidence(client)

	normalized, units, err := t.windowUnits(text)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:       normalized,
		Structured: map[string]interface{}{"ocr_confidence": confidence},
		Units:      units,
	}, nil
}

func meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}

	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}
