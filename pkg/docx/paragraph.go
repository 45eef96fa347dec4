package docx

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Paragraph is a body paragraph slot of a Document.
type Paragraph struct {
	doc *Document
	n   *node
}

// Run is a single formatted run inside a paragraph.
type Run struct {
	n *node
}

// Text returns the paragraph text with tabs and line breaks expanded.
func (p *Paragraph) Text() (text string) {
	var buf bytes.Buffer
	p.n.textContent(&buf)
	text = buf.String()
	return text
}

// Style returns the paragraph style name, e.g. "Heading 1".
func (p *Paragraph) Style() (name string) {
	id := p.StyleID()
	if id == "" {
		name = p.doc.defaultStyle
		return name
	}
	if resolved, ok := p.doc.styles[id]; ok {
		name = resolved
		return name
	}
	name = id
	return name
}

// StyleID returns the raw style id referenced by the paragraph properties, or "".
func (p *Paragraph) StyleID() (id string) {
	ppr := p.n.child("pPr")
	if ppr == nil {
		return id
	}
	ps := ppr.child("pStyle")
	if ps == nil {
		return id
	}
	id, _ = ps.attr("val")
	return id
}

// Runs returns the direct runs of the paragraph.
func (p *Paragraph) Runs() (runs []Run) {
	for _, r := range p.n.elements("r") {
		runs = append(runs, Run{n: r})
	}
	return runs
}

// Clear removes all content from the paragraph but keeps its properties.
func (p *Paragraph) Clear() {
	kept := make([]*node, 0, 1)
	for _, ch := range p.n.children {
		if ch.is("pPr") {
			kept = append(kept, ch)
		}
	}
	p.n.children = kept
}

// AddRun appends a run holding text. Newlines become line breaks and tabs become tab stops.
func (p *Paragraph) AddRun(text string, bold bool) (run Run) {
	var rpr *node
	if bold {
		rpr = newElement("rPr")
		rpr.children = append(rpr.children, newElement("b"))
	}
	run = p.appendRun(rpr, text)
	return run
}

// SetText replaces the paragraph content with text, keeping the formatting of its first run.
func (p *Paragraph) SetText(text string) {
	var rpr *node
	if first := p.n.child("r"); first != nil {
		rpr = first.child("rPr").clone()
	}
	p.Clear()
	p.appendRun(rpr, text)
}

func (p *Paragraph) appendRun(rpr *node, text string) (run Run) {
	r := buildRun(rpr, text)
	p.n.children = append(p.n.children, r)
	run = Run{n: r}
	return run
}

// buildRun creates a w:r with optional properties and text content.
func buildRun(rpr *node, text string) (r *node) {
	r = newElement("r")
	if rpr != nil {
		r.children = append(r.children, rpr)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			r.children = append(r.children, newElement("br"))
		}
		segments := strings.Split(line, "\t")
		for j, seg := range segments {
			if j > 0 {
				r.children = append(r.children, newElement("tab"))
			}
			if seg == "" {
				continue
			}
			t := newElement("t", xml.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
			t.children = append(t.children, newText(seg))
			r.children = append(r.children, t)
		}
	}
	return r
}

// Text returns the run text.
func (r Run) Text() (text string) {
	var buf bytes.Buffer
	r.n.textContent(&buf)
	text = buf.String()
	return text
}

// Bold reports whether the run carries direct bold formatting.
func (r Run) Bold() (bold bool) {
	rpr := r.n.child("rPr")
	if rpr == nil {
		return bold
	}
	b := rpr.child("b")
	if b == nil {
		return bold
	}
	val, ok := b.attr("val")
	bold = !ok || (val != "0" && val != "false" && val != "off")
	return bold
}
