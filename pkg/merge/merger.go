package merge

import (
	"strings"

	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/sections"
)

// Merger applies a TaggedDocument onto a template by heading.
type Merger struct {
	// FillEmpty, when set, replaces the content of blocks that have none (e.g. sections.NotProvided).
	FillEmpty string
}

// Report records which path each block took during a merge.
type Report struct {
	Matched       []string `json:"matched"`
	Appended      []string `json:"appended"`
	Continuations []string `json:"continuations"`
	HeaderApplied bool     `json:"header_applied"`
}

// Apply merges tagged into doc in place.
//
// For every block, the first body paragraph whose trimmed text equals the heading is cleared and
// rewritten as a bold heading run followed by the content; when no paragraph matches, a paragraph of
// the same shape is appended. A rewritten paragraph no longer equals its bare heading, so a later
// block with the same heading appends. Heading-less blocks are always appended as plain text.
func (m Merger) Apply(doc *docx.Document, tagged sections.TaggedDocument) (report Report) {
	report = Report{
		Matched:       make([]string, 0),
		Appended:      make([]string, 0),
		Continuations: make([]string, 0),
	}

	if tagged.Header != nil {
		report.HeaderApplied = applyHeader(doc, tagged.Header)
	}

	for _, block := range tagged.Blocks {
		content := block.Text()

		if block.Heading == "" {
			if strings.TrimSpace(content) == "" {
				continue
			}
			doc.AppendParagraph().AddRun(content, false)
			report.Continuations = append(report.Continuations, firstLine(content))
			continue
		}

		if strings.TrimSpace(content) == "" {
			content = m.FillEmpty
		}

		p := findHeading(doc, block.Heading)
		if p != nil {
			p.Clear()
			report.Matched = append(report.Matched, block.Heading)
		} else {
			p = doc.AppendParagraph()
			report.Appended = append(report.Appended, block.Heading)
		}

		p.AddRun(block.Heading, true)
		if content != "" {
			p.AddRun("\n"+content, false)
		}
	}

	return report
}

// applyHeader writes the header lines into the first cell of the first table.
func applyHeader(doc *docx.Document, header *sections.Block) (applied bool) {
	tables := doc.Tables()
	if len(tables) == 0 {
		return applied
	}

	cell, ok := tables[0].Cell(0, 0)
	if !ok {
		return applied
	}

	cell.SetText(header.Text())
	applied = true
	return applied
}

func findHeading(doc *docx.Document, heading string) (match *docx.Paragraph) {
	for _, p := range doc.Paragraphs() {
		if strings.TrimSpace(p.Text()) == heading {
			match = p
			return match
		}
	}
	return match
}

func firstLine(text string) (line string) {
	line, _, _ = strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
