package extract

import (
	"errors"
	"testing"

	"ai-tutor-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e := New()

	text, err := e.Extract("notes.md", []byte("\xef\xbb\xbf# Cells\n\nCells are small."))
	require.NoError(t, err)
	assert.Equal(t, "# Cells\n\nCells are small.", text)
}

func TestExtractEmptyText(t *testing.T) {
	_, err := New().Extract("empty.txt", []byte("  \n "))
	assert.True(t, errors.Is(err, apperror.ErrEmptyDocument))
}

func TestExtractUnknownBinaryRejected(t *testing.T) {
	_, err := New().Extract("image.png", []byte{0x89, 0x50, 0xff, 0xfe, 0x00})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestExtractUnknownTextAccepted(t *testing.T) {
	text, err := New().Extract("lesson.rst", []byte("Plain words"))
	require.NoError(t, err)
	assert.Equal(t, "Plain words", text)
}

func TestExtractHTMLKeepsHeadingsDropsScripts(t *testing.T) {
	html := `<html><head><script>alert("x")</script></head><body>
<h1>Photosynthesis</h1><p>Plants convert <b>light</b> into energy.</p>
<h2>Chlorophyll</h2><p>It is green.</p></body></html>`

	text, err := New().Extract("page.html", []byte(html))
	require.NoError(t, err)

	assert.Contains(t, text, "# Photosynthesis")
	assert.Contains(t, text, "## Chlorophyll")
	assert.Contains(t, text, "Plants convert **light** into energy.")
	assert.NotContains(t, text, "alert")
}

func TestExtractInvalidPDF(t *testing.T) {
	_, err := New().Extract("broken.pdf", []byte("%PDF-1.4 not really"))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(Hello \\(PDF\\)) Tj\n0 -14 Td\n[(Wor) -20 (ld)] TJ\nT*\n(Next\\040line) Tj\nET\n")

	assert.Equal(t, "Hello (PDF) World\nNext line", textFromContentStream(stream))
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\101\102`, "AB"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodePDFString([]byte(tt.in)))
	}
}
