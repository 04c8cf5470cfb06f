package transform

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/internal/apperr"
)

func TestTransform_UnsupportedMediaType(t *testing.T) {
	tr := New()

	_, err := tr.Transform([]byte("data"), "application/octet-stream", "firmware.bin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnsupportedMediaType))
}

func TestTransform_DispatchByMediaTypeWithoutExtension(t *testing.T) {
	tr := New()

	result, err := tr.Transform([]byte("hello world"), "text/plain; charset=utf-8", "upload")
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	require.Len(t, result.Units, 1)
}

func TestTransform_PlainTextScenario(t *testing.T) {
	tr := New(WithChunking(500, 50))

	result, err := tr.Transform([]byte(strings.Repeat("a", 1200)), "text/plain", "notes.txt")
	require.NoError(t, err)
	require.Len(t, result.Units, 3)
	assert.Len(t, result.Units[0].Content, 500)
	assert.Len(t, result.Units[1].Content, 500)
	assert.Len(t, result.Units[2].Content, 300)
}

func TestTransform_InvalidChunkParams(t *testing.T) {
	tr := New(WithChunking(100, 100))

	_, err := tr.Transform([]byte("text"), "text/plain", "a.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestParseJSON_ArrayElements(t *testing.T) {
	tr := New()

	result, err := tr.Transform([]byte(`[{"name":"ada"},{"name":"bob"}]`), "application/json", "people.json")
	require.NoError(t, err)
	require.Len(t, result.Units, 2)
	assert.Equal(t, `{"name":"ada"}`, result.Units[0].Content)
	assert.Equal(t, "/0", result.Units[0].Metadata["pointer"])
	assert.Equal(t, "/1", result.Units[1].Metadata["pointer"])
}

func TestParseJSON_ObjectKeys(t *testing.T) {
	tr := New()

	result, err := tr.Transform([]byte(`{"title":"doc","count":3}`), "application/json", "meta.json")
	require.NoError(t, err)
	require.Len(t, result.Units, 2)
	assert.Equal(t, "/title", result.Units[0].Metadata["pointer"])
	assert.Contains(t, result.Units[0].Content, `"doc"`)
}

func TestParseJSON_Invalid(t *testing.T) {
	tr := New()

	_, err := tr.Transform([]byte(`{"broken":`), "application/json", "bad.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrParseFailed))
}

func TestParseCSV_RowGrouping(t *testing.T) {
	tr := New(WithRowsPerUnit(2))

	csv := "name,age\nada,36\nbob,41\ncarol,29\n"
	result, err := tr.Transform([]byte(csv), "text/csv", "people.csv")
	require.NoError(t, err)

	assert.Equal(t, "name | age\nada | 36\nbob | 41\ncarol | 29", result.Text)
	require.Len(t, result.Units, 2)
	assert.Equal(t, "name | age\nada | 36", result.Units[0].Content)
	assert.Equal(t, "bob | 41\ncarol | 29", result.Units[1].Content)
}

func TestParseTSV(t *testing.T) {
	tr := New()

	result, err := tr.Transform([]byte("a\tb\nc\td\n"), "text/tab-separated-values", "data.tsv")
	require.NoError(t, err)
	assert.Equal(t, "a | b\nc | d", result.Text)
}

func TestParseDOCX(t *testing.T) {
	tr := New()

	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	data := buildZip(t, map[string]string{"word/document.xml": docXML})

	result, err := tr.Transform(data, "", "report.docx")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph. Second paragraph.", result.Text)
	require.Len(t, result.Units, 1)
	assert.Empty(t, result.Warnings)
}

func TestParseDOCX_MissingBodyWarns(t *testing.T) {
	tr := New()

	data := buildZip(t, map[string]string{"word/other.xml": "<x/>"})

	result, err := tr.Transform(data, "", "empty.docx")
	require.NoError(t, err)
	assert.Empty(t, result.Units)
	assert.Contains(t, result.Warnings, "word/document.xml missing from archive")
}

func TestParseDOCX_NotAnArchive(t *testing.T) {
	tr := New()

	_, err := tr.Transform([]byte("plain bytes"), "", "broken.docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrParseFailed))
}

func TestParsePPTX_PerSlideUnits(t *testing.T) {
	tr := New()

	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>
    <a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
  </p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}

	data := buildZip(t, map[string]string{
		"ppt/slides/slide2.xml": slide("Second slide"),
		"ppt/slides/slide1.xml": slide("First slide"),
	})

	result, err := tr.Transform(data, "", "deck.pptx")
	require.NoError(t, err)
	require.Len(t, result.Units, 2)
	assert.Equal(t, "First slide", result.Units[0].Content)
	assert.Equal(t, 1, result.Units[0].Metadata["slide"])
	assert.Equal(t, "Second slide", result.Units[1].Content)
	assert.Equal(t, 2, result.Units[1].Metadata["slide"])
}

func TestParsePDF_GarbageFails(t *testing.T) {
	tr := New()

	_, err := tr.Transform([]byte("definitely not a pdf"), "application/pdf", "scan.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrParseFailed))
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
