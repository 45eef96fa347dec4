package sections

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Save writes an extraction to a JSON file so it can be edited and merged later.
func Save(path string, doc TaggedDocument) (err error) {
	var data []byte
	data, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal sections")
		return err
	}

	err = os.WriteFile(path, append(data, '\n'), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write sections file: %s", path)
		return err
	}

	return err
}

// Load reads an extraction from a JSON file.
func Load(path string) (doc TaggedDocument, err error) {
	// Read file
	var fileData []byte
	fileData, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read sections file: %s", path)
		return doc, err
	}

	// Parse JSON
	err = json.Unmarshal(fileData, &doc)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse sections JSON: %s", path)
		return doc, err
	}

	if doc.Blocks == nil {
		doc.Blocks = make([]Block, 0)
	}

	// Validate data
	err = doc.Validate()
	if err != nil {
		err = errors.Wrap(err, "sections validation failed")
		return doc, err
	}

	return doc, err
}

// Validate checks that the document is well-formed.
func (d TaggedDocument) Validate() (err error) {
	if d.Empty() {
		err = errors.New("no sections found")
		return err
	}

	for i, block := range d.Blocks {
		if strings.Contains(block.Heading, "\n") {
			err = errors.Errorf("block at index %d has a multi-line heading", i)
			return err
		}
		if block.Heading == "" && block.Empty() {
			err = errors.Errorf("block at index %d has neither heading nor content", i)
			return err
		}
	}

	return err
}

// Markdown renders the document as a markdown preview.
func (d TaggedDocument) Markdown() (md string) {
	var b strings.Builder

	if d.Header != nil {
		for _, line := range d.Header.Content {
			b.WriteString("# " + line + "\n")
		}
		b.WriteString("\n")
	}

	for _, block := range d.Blocks {
		if block.Heading != "" {
			b.WriteString("## " + block.Heading + "\n\n")
		}
		if !block.Empty() {
			b.WriteString(block.Text() + "\n\n")
		}
	}

	md = b.String()
	return md
}
