package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ai-tutor-be/pkg/apperror"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// Extractor turns uploaded files into plain text ready for chunking.
type Extractor struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

func New() *Extractor {
	return &Extractor{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Extract dispatches on the file extension. Unknown extensions are accepted
// when the payload is valid UTF-8.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md", ".markdown":
		text, err = plainText(data)
	case ".pdf":
		text, err = e.PDF(data)
	case ".html", ".htm":
		text, err = e.HTML(data)
	default:
		text, err = plainText(data)
		if err != nil {
			return "", apperror.Validation(fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)))
		}
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperror.EmptyDocument(fmt.Sprintf("no text could be extracted from %s", filename))
	}
	return text, nil
}

// HTML sanitizes markup and converts it to markdown so headings survive as "#" lines.
func (e *Extractor) HTML(data []byte) (string, error) {
	clean := e.policy.SanitizeBytes(data)
	md, err := e.md.ConvertString(string(clean))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return md, nil
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", apperror.Validation("file is not valid UTF-8 text")
	}
	return string(data), nil
}
