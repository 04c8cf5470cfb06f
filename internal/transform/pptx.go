package transform

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/paperbase/paperbase/internal/apperr"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slideXML collects every a:t text run in a slide regardless of nesting.
type slideXML struct {
	Texts []string `xml:"cSld>spTree>sp>txBody>p>r>t"`
}

// parsePPTX emits one unit per slide, extracting the visible text runs from
// the slide markup. Slides with no text are skipped.
func (t *Transformer) parsePPTX(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.ParseFailedf("pptx is not a valid archive: %v", err)
	}

	type slideFile struct {
		number  int
		content []byte
	}

	var slides []slideFile
	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])

		content, ok := readArchiveFile(reader, file.Name)
		if !ok {
			return nil, apperr.ParseFailedf("pptx slide %d unreadable", n)
		}
		slides = append(slides, slideFile{number: n, content: content})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var (
		texts []string
		units []UnitDraft
	)
	for _, slide := range slides {
		var parsed slideXML
		if err := xml.Unmarshal(slide.content, &parsed); err != nil {
			return nil, apperr.ParseFailedf("pptx slide %d: %v", slide.number, err)
		}

		text := NormalizeWhitespace(strings.Join(parsed.Texts, " "))
		if text == "" {
			continue
		}

		texts = append(texts, text)
		units = append(units, UnitDraft{
			Content:  text,
			Metadata: map[string]interface{}{"slide": slide.number},
		})
	}

	return &Result{
		Text:       strings.Join(texts, "\n"),
		Structured: map[string]interface{}{"slides": len(slides)},
		Units:      units,
	}, nil
}
