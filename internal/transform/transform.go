// Package transform converts uploaded documents into normalized text and
// embeddable units. Each supported format has its own parser producing the
// common Result shape; chunking strategy depends on whether the source has
// natural record boundaries.
package transform

import (
	"path/filepath"
	"strings"

	"github.com/paperbase/paperbase/internal/apperr"
)

// UnitDraft is one candidate text unit before persistence.
type UnitDraft struct {
	Content  string
	Metadata map[string]interface{}
}

// Result is the common output shape of every format parser. Warnings carry
// non-fatal extraction oddities; Structured is the parsed side channel.
type Result struct {
	Text       string
	Structured map[string]interface{}
	Warnings   []string
	Units      []UnitDraft
}

type parseFunc func(t *Transformer, data []byte) (*Result, error)

// formatTable maps a normalized extension to its parser. Adding a format
// means adding one entry here plus its parser file.
var formatTable = map[string]parseFunc{
	".txt":      (*Transformer).parseText,
	".md":       (*Transformer).parseText,
	".markdown": (*Transformer).parseText,
	".html":     (*Transformer).parseText,
	".htm":      (*Transformer).parseText,
	".json":     (*Transformer).parseJSON,
	".pdf":      (*Transformer).parsePDF,
	".docx":     (*Transformer).parseDOCX,
	".csv":      (*Transformer).parseCSV,
	".tsv":      (*Transformer).parseTSV,
	".xlsx":     (*Transformer).parseXLSX,
	".pptx":     (*Transformer).parsePPTX,
	".png":      (*Transformer).parseImage,
	".jpg":      (*Transformer).parseImage,
	".jpeg":     (*Transformer).parseImage,
	".tiff":     (*Transformer).parseImage,
	".bmp":      (*Transformer).parseImage,
}

// mediaTypeExt lets dispatch fall back to the declared media type when the
// filename carries no usable extension.
var mediaTypeExt = map[string]string{
	"text/plain":               ".txt",
	"text/markdown":            ".md",
	"text/html":                ".html",
	"application/json":         ".json",
	"application/pdf":          ".pdf",
	"text/csv":                 ".csv",
	"text/tab-separated-values": ".tsv",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/tiff": ".tiff",
	"image/bmp":  ".bmp",
}

// Transformer converts raw document bytes into a Result.
type Transformer struct {
	chunkSize   int
	overlap     int
	rowsPerUnit int
}

// Option configures a Transformer.
type Option func(*Transformer)

func WithChunking(size, overlap int) Option {
	return func(t *Transformer) {
		t.chunkSize = size
		t.overlap = overlap
	}
}

func WithRowsPerUnit(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.rowsPerUnit = n
		}
	}
}

func New(opts ...Option) *Transformer {
	t := &Transformer{
		chunkSize:   DefaultChunkSize,
		overlap:     DefaultOverlap,
		rowsPerUnit: DefaultRowsPerUnit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform dispatches on the filename extension, falling back to the
// declared media type. Unknown formats fail with UnsupportedMediaType.
func (t *Transformer) Transform(data []byte, mediaType, filenameHint string) (*Result, error) {
	if t.overlap >= t.chunkSize {
		return nil, apperr.InvalidArgumentf("overlap %d must be less than chunk size %d", t.overlap, t.chunkSize)
	}

	ext := strings.ToLower(filepath.Ext(filenameHint))
	if _, ok := formatTable[ext]; !ok {
		// Strip parameters like "; charset=utf-8" before the lookup.
		mt := strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0])
		ext = mediaTypeExt[strings.ToLower(mt)]
	}

	parse, ok := formatTable[ext]
	if !ok {
		return nil, apperr.ErrUnsupportedMediaType
	}

	return parse(t, data)
}
