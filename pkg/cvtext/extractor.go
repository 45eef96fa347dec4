package cvtext

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExtractionError reports a source document that could not be turned into text.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() (msg string) {
	msg = "extraction error: " + e.Name + ": " + e.Err.Error()
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() (err error) {
	err = e.Err
	return err
}

// Extractor turns CV documents into plain text.
type Extractor struct {
	// FirstPageOnly limits PDF extraction to the first page.
	FirstPageOnly bool
}

// Extract returns the text of data, choosing the format by the extension of name and falling back to
// content sniffing. Unreadable or textless documents yield an *ExtractionError.
func (x Extractor) Extract(name string, data []byte) (text string, err error) {
	if len(data) == 0 {
		err = &ExtractionError{Name: name, Err: errors.New("document is empty")}
		return text, err
	}

	switch formatOf(name, data) {
	case formatPDF:
		text, err = pdfText(data, x.FirstPageOnly)
	case formatDOCX:
		text, err = docxText(data)
	case formatHTML:
		text, err = decodeText(data)
		text = stripBasicHTML(text)
	default:
		text, err = decodeText(data)
	}

	if err != nil {
		err = &ExtractionError{Name: name, Err: err}
		return text, err
	}

	text = cleanText(text)
	if text == "" {
		err = &ExtractionError{Name: name, Err: errors.New("document contains no extractable text")}
		return text, err
	}

	return text, err
}

type format int

const (
	formatText format = iota
	formatPDF
	formatDOCX
	formatHTML
)

func formatOf(name string, data []byte) (f format) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		f = formatPDF
	case ".docx":
		f = formatDOCX
	case ".html", ".htm":
		f = formatHTML
	case ".txt", ".md", ".text":
		f = formatText
	default:
		switch {
		case bytes.HasPrefix(data, []byte("%PDF-")):
			f = formatPDF
		case bytes.HasPrefix(data, []byte("PK\x03\x04")):
			f = formatDOCX
		case bytes.Contains(bytes.ToLower(data[:min(len(data), 512)]), []byte("<html")):
			f = formatHTML
		default:
			f = formatText
		}
	}
	return f
}

func docxText(data []byte) (text string, err error) {
	var doc *docx.Document
	doc, err = docx.Open(data)
	if err != nil {
		err = errors.Wrap(err, "failed to open docx")
		return text, err
	}
	defer doc.Close()

	text = doc.PlainText()
	return text, err
}

// decodeText reads UTF-8, UTF-16 with a byte order mark, or falls back to Windows-1252.
func decodeText(data []byte) (text string, err error) {
	if utf8.Valid(data) && !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		text = strings.TrimPrefix(string(data), "\ufeff")
		return text, err
	}

	var out []byte
	out, _, err = transform.Bytes(unicode.BOMOverride(charmap.Windows1252.NewDecoder()), data)
	if err != nil {
		err = errors.Wrap(err, "failed to decode text")
		return text, err
	}

	text = string(out)
	return text, err
}

// cleanText normalizes line endings, trims each line and collapses runs of blank lines.
func cleanText(raw string) (text string) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := make([]string, 0)
	blank := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\u00a0", " "))
		if line == "" {
			blank = true
			continue
		}
		if blank && len(lines) > 0 {
			lines = append(lines, "")
		}
		blank = false
		lines = append(lines, line)
	}

	text = strings.Join(lines, "\n")
	return text
}
