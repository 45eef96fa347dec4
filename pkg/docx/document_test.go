package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testBlueprint() (bp Blueprint) {
	bp = Blueprint{
		PageHeader:  "[NAME] - Curriculum Vitae",
		HeaderLines: []string{"Consultant Name", "Consultant Position"},
		Paragraphs: []Line{
			{Text: "Professional Summary", Style: "Heading1"},
			{Text: "Placeholder summary."},
			{Text: "Technical skills", Style: "Heading1"},
		},
	}
	return bp
}

func buildTemplate(t *testing.T, bp Blueprint) (data []byte) {
	t.Helper()
	data, err := New(bp)
	if err != nil {
		t.Fatalf("Failed to build template: %v", err)
	}
	return data
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

func TestOpenBlueprint(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	if len(paragraphs) != 3 {
		t.Fatalf("Expected 3 paragraphs, got %d", len(paragraphs))
	}

	tests := []struct {
		text  string
		style string
	}{
		{"Professional Summary", "Heading 1"},
		{"Placeholder summary.", "Normal"},
		{"Technical skills", "Heading 1"},
	}

	for i, tt := range tests {
		if paragraphs[i].Text() != tt.text {
			t.Errorf("Paragraph %d: expected text '%s', got '%s'", i, tt.text, paragraphs[i].Text())
		}
		if paragraphs[i].Style() != tt.style {
			t.Errorf("Paragraph %d: expected style '%s', got '%s'", i, tt.style, paragraphs[i].Style())
		}
	}

	tables := doc.Tables()
	if len(tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(tables))
	}

	cell, ok := tables[0].Cell(0, 0)
	if !ok {
		t.Fatal("Expected first cell to exist")
	}

	if cell.Text() != "Consultant Name\nConsultant Position" {
		t.Errorf("Unexpected cell text: %q", cell.Text())
	}

	_, ok = tables[0].Cell(1, 0)
	if ok {
		t.Error("Expected missing second row")
	}
}

func TestRoundTripIsLossless(t *testing.T) {
	original := buildTemplate(t, testBlueprint())

	doc, err := Open(original)
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	for _, part := range []string{"word/document.xml", "word/styles.xml", "word/header1.xml", "[Content_Types].xml"} {
		if readPart(t, original, part) != readPart(t, out, part) {
			t.Errorf("Part %s changed on round trip", part)
		}
	}
}

func TestClearAndAddRun(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	p := doc.Paragraphs()[0]
	p.Clear()
	p.AddRun("Professional Summary", true)
	p.AddRun("\nR&D lead <platform>", false)

	if p.Text() != "Professional Summary\nR&D lead <platform>" {
		t.Errorf("Unexpected text: %q", p.Text())
	}

	if p.Style() != "Heading 1" {
		t.Errorf("Expected paragraph properties to survive Clear, got style '%s'", p.Style())
	}

	runs := p.Runs()
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}

	if !runs[0].Bold() {
		t.Error("Expected heading run to be bold")
	}

	if runs[1].Bold() {
		t.Error("Expected content run to be plain")
	}

	// Reopen to make sure escaping survives serialization.
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.Paragraphs()[0].Text() != "Professional Summary\nR&D lead <platform>" {
		t.Errorf("Unexpected text after reopen: %q", reopened.Paragraphs()[0].Text())
	}
}

func TestSetTextKeepsRunFormatting(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	p := doc.Paragraphs()[1]
	p.Clear()
	p.AddRun("Name: [NAME]", true)
	p.SetText("Name: Jane Doe")

	if p.Text() != "Name: Jane Doe" {
		t.Errorf("Unexpected text: %q", p.Text())
	}

	runs := p.Runs()
	if len(runs) != 1 || !runs[0].Bold() {
		t.Error("Expected a single bold run after SetText")
	}
}

func TestAppendParagraphBeforeSectionProperties(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	p := doc.AppendParagraph()
	p.AddRun("Languages", true)

	paragraphs := doc.Paragraphs()
	if len(paragraphs) != 4 {
		t.Fatalf("Expected 4 paragraphs, got %d", len(paragraphs))
	}

	if paragraphs[3].Text() != "Languages" {
		t.Errorf("Expected appended paragraph last, got %q", paragraphs[3].Text())
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	content := readPart(t, out, "word/document.xml")
	if strings.Index(content, "Languages") > strings.Index(content, "<w:sectPr") {
		t.Error("Expected appended paragraph before section properties")
	}
}

func TestCellSetText(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	cell, ok := doc.Tables()[0].Cell(0, 0)
	if !ok {
		t.Fatal("Expected first cell to exist")
	}

	cell.SetText("Jane Doe\nSenior Consultant")

	if cell.Text() != "Jane Doe\nSenior Consultant" {
		t.Errorf("Unexpected cell text: %q", cell.Text())
	}

	if len(cell.Paragraphs()) != 1 {
		t.Errorf("Expected 1 paragraph in cell, got %d", len(cell.Paragraphs()))
	}

	if cell.Paragraphs()[0].Style() != "Title" {
		t.Errorf("Expected cell paragraph style to be kept, got '%s'", cell.Paragraphs()[0].Style())
	}
}

func TestReplaceInHeadersFooters(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	err = doc.ReplaceInHeadersFooters("[NAME]", "Jane Doe")
	if err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	header := readPart(t, out, "word/header1.xml")
	if !strings.Contains(header, "Jane Doe - Curriculum Vitae") {
		t.Errorf("Expected header to be replaced, got %s", header)
	}
}

func TestPlainText(t *testing.T) {
	doc, err := Open(buildTemplate(t, testBlueprint()))
	if err != nil {
		t.Fatalf("Failed to open template: %v", err)
	}
	defer doc.Close()

	expected := "Consultant Name\nConsultant Position\nProfessional Summary\nPlaceholder summary.\nTechnical skills"
	if doc.PlainText() != expected {
		t.Errorf("Unexpected plain text: %q", doc.PlainText())
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a zip", []byte("definitely not a docx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			var tErr *TemplateError
			if !errors.As(err, &tErr) {
				t.Errorf("Expected TemplateError, got %T", err)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "template.docx")

	err := os.WriteFile(path, buildTemplate(t, testBlueprint()), 0600)
	if err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	doc, err := OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open template file: %v", err)
	}
	_ = doc.Close()

	_, err = OpenFile(filepath.Join(tmpDir, "missing.docx"))
	var tErr *TemplateError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TemplateError, got %v", err)
	}

	if tErr.Name != filepath.Join(tmpDir, "missing.docx") {
		t.Errorf("Expected error to name the path, got '%s'", tErr.Name)
	}
}

func TestParseXMLUnbalanced(t *testing.T) {
	_, err := parseXML([]byte(`<w:document xmlns:w="x"><w:body></w:document>`))
	if err == nil {
		t.Error("Expected error for unbalanced xml, got nil")
	}
}
