package merge

import (
	"archive/zip"
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/sections"
)

func placeholderBlueprint() (bp docx.Blueprint) {
	bp = docx.Blueprint{
		PageHeader:  "[NAME] - Curriculum Vitae",
		HeaderLines: []string{"[NAME]"},
		Paragraphs: []docx.Line{
			{Text: "Name: [NAME]"},
			{Text: "Contact: [EMAIL] / [PHONE]"},
			{Text: "No tokens here."},
			{Text: "[SUMMARY]"},
		},
	}
	return bp
}

func TestSubstitute(t *testing.T) {
	doc := openTemplate(t, placeholderBlueprint())

	values := map[string]string{
		"[NAME]":    "Jane Doe",
		"[SUMMARY]": "Seasoned engineer.\nLeads teams.",
		"[BOGUS]":   "ignored",
	}

	replaced, err := Substitute(doc, values)
	if err != nil {
		t.Fatalf("Failed to substitute: %v", err)
	}

	if replaced != 5 {
		t.Errorf("Expected 5 replacements, got %d", replaced)
	}

	expected := []string{
		"Name: Jane Doe",
		"Contact:  / ",
		"No tokens here.",
		"Seasoned engineer.\nLeads teams.",
	}

	for i, p := range doc.Paragraphs() {
		if p.Text() != expected[i] {
			t.Errorf("Paragraph %d: expected %q, got %q", i, expected[i], p.Text())
		}
	}

	cell, ok := doc.Tables()[0].Cell(0, 0)
	if !ok {
		t.Fatal("Expected first cell")
	}

	if cell.Text() != "Jane Doe" {
		t.Errorf("Expected table cell substituted, got %q", cell.Text())
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	header := readPart(t, out, "word/header1.xml")
	if !strings.Contains(header, "Jane Doe - Curriculum Vitae") {
		t.Errorf("Expected page header substituted, got %s", header)
	}
}

func TestSubstituteWithoutTokens(t *testing.T) {
	doc := openTemplate(t, templateBlueprint())

	replaced, err := Substitute(doc, map[string]string{"[NAME]": "Jane Doe"})
	if err != nil {
		t.Fatalf("Failed to substitute: %v", err)
	}

	if replaced != 0 {
		t.Errorf("Expected no replacements, got %d", replaced)
	}
}

func TestPlaceholderValues(t *testing.T) {
	tests := []struct {
		name     string
		tagged   sections.TaggedDocument
		expected map[string]string
	}{
		{
			name: "tokens and labels",
			tagged: sections.TaggedDocument{
				Blocks: []sections.Block{
					{Heading: "[NAME]", Content: []string{"Jane Doe"}},
					{Heading: "skills", Content: []string{"Go", "Rust"}},
					{Heading: "Skills", Content: []string{"ignored"}},
					{Heading: "Professional Summary", Content: []string{"not a token"}},
				},
			},
			expected: map[string]string{
				"[NAME]":   "Jane Doe",
				"[SKILLS]": "Go\nRust",
			},
		},
		{
			name: "name from header",
			tagged: sections.TaggedDocument{
				Header: &sections.Block{Content: []string{"John Smith", "Developer"}},
				Blocks: []sections.Block{},
			},
			expected: map[string]string{
				"[NAME]": "John Smith",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := PlaceholderValues(tt.tagged)
			if !reflect.DeepEqual(values, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, values)
			}
		})
	}
}

func readPart(t *testing.T, data []byte, name string) (content string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open part %s: %v", name, err)
		}
		raw, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("Failed to read part %s: %v", name, err)
		}
		content = string(raw)
		return content
	}
	t.Fatalf("Part %s not found", name)
	return content
}
