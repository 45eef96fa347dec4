package cvtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// pdfText extracts the plain text of every page, or only the first.
func pdfText(data []byte, firstPageOnly bool) (text string, err error) {
	// The reader panics on some malformed objects instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.Errorf("malformed pdf: %s", fmt.Sprint(r))
		}
	}()

	var reader *pdf.Reader
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "failed to open pdf")
		return text, err
	}

	pages := reader.NumPage()
	if pages < 1 {
		err = errors.New("pdf has no pages")
		return text, err
	}
	if firstPageOnly {
		pages = 1
	}

	fonts := make(map[string]*pdf.Font)
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}

		var pageText string
		pageText, err = page.GetPlainText(fonts)
		if err != nil {
			err = errors.Wrapf(err, "failed to read text of page %d", i)
			return text, err
		}
		parts = append(parts, pageText)
	}

	text = strings.Join(parts, "\n\n")
	return text, err
}
