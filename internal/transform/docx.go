package transform

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/paperbase/paperbase/internal/apperr"
)

type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []wordText `xml:"t"`
}

type wordText struct {
	Content string `xml:",chardata"`
}

// parseDOCX extracts raw text from word/document.xml. Extraction oddities
// land as warnings on the result rather than failing the whole document.
func (t *Transformer) parseDOCX(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.ParseFailedf("docx is not a valid archive: %v", err)
	}

	var warnings []string

	content, found := readArchiveFile(reader, "word/document.xml")
	if !found {
		warnings = append(warnings, "word/document.xml missing from archive")
	}

	var text string
	if found {
		var doc wordDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, apperr.ParseFailedf("docx document.xml: %v", err)
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, el := range run.Text {
					b.WriteString(el.Content)
				}
			}
		}
		text = b.String()

		if strings.TrimSpace(text) == "" {
			warnings = append(warnings, "document body contains no text runs")
		}
	}

	normalized, units, err := t.windowUnits(text)
	if err != nil {
		return nil, err
	}

	return &Result{Text: normalized, Warnings: warnings, Units: units}, nil
}

func readArchiveFile(reader *zip.Reader, name string) ([]byte, bool) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, false
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, false
		}
		return content, true
	}
	return nil, false
}
