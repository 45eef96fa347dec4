package docx

import "strings"

// Table is a body-level table of a Document.
type Table struct {
	doc *Document
	n   *node
}

// Cell is a single table cell.
type Cell struct {
	doc *Document
	n   *node
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() (count int) {
	count = len(t.n.elements("tr"))
	return count
}

// Cell returns the cell at row r, column c (both zero-based).
func (t *Table) Cell(r, c int) (cell *Cell, ok bool) {
	rows := t.n.elements("tr")
	if r < 0 || r >= len(rows) {
		return cell, ok
	}
	cells := rows[r].elements("tc")
	if c < 0 || c >= len(cells) {
		return cell, ok
	}
	cell = &Cell{doc: t.doc, n: cells[c]}
	ok = true
	return cell, ok
}

// Paragraphs returns the paragraphs of every cell, row by row.
func (t *Table) Paragraphs() (paragraphs []*Paragraph) {
	for _, row := range t.n.elements("tr") {
		for _, tc := range row.elements("tc") {
			cell := &Cell{doc: t.doc, n: tc}
			paragraphs = append(paragraphs, cell.Paragraphs()...)
		}
	}
	return paragraphs
}

// Paragraphs returns the direct paragraphs of the cell.
func (c *Cell) Paragraphs() (paragraphs []*Paragraph) {
	for _, p := range c.n.elements("p") {
		paragraphs = append(paragraphs, &Paragraph{doc: c.doc, n: p})
	}
	return paragraphs
}

// Text returns the cell paragraphs joined by newlines.
func (c *Cell) Text() (text string) {
	parts := make([]string, 0)
	for _, p := range c.Paragraphs() {
		parts = append(parts, p.Text())
	}
	text = strings.Join(parts, "\n")
	return text
}

// SetText replaces the cell content with a single paragraph holding text.
// Cell properties and the first paragraph's properties and run formatting are kept.
func (c *Cell) SetText(text string) {
	var tcPr, para *node
	for _, ch := range c.n.children {
		if ch.is("tcPr") && tcPr == nil {
			tcPr = ch
		}
		if ch.is("p") && para == nil {
			para = ch
		}
	}
	if para == nil {
		para = newElement("p")
	}

	kept := make([]*node, 0, 2)
	if tcPr != nil {
		kept = append(kept, tcPr)
	}
	c.n.children = append(kept, para)

	p := &Paragraph{doc: c.doc, n: para}
	p.SetText(text)
}
