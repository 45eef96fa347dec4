package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/pkg/errors"
)

// ContentType is the MIME type of a WordprocessingML package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const stylesPart = "word/styles.xml"

// Document is an editable DOCX template. Only word/document.xml is parsed; every other part is
// carried through unchanged unless headers/footers are edited via ReplaceInHeadersFooters.
type Document struct {
	source       *docx.ReplaceDocx
	pkg          *docx.Docx
	root         *node
	body         *node
	styles       map[string]string
	defaultStyle string
}

// TemplateError reports a template that is missing or malformed.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() (msg string) {
	if e.Name == "" {
		msg = "template error: " + e.Err.Error()
		return msg
	}
	msg = "template error: " + e.Name + ": " + e.Err.Error()
	return msg
}

// Unwrap returns the underlying cause.
func (e *TemplateError) Unwrap() (err error) {
	err = e.Err
	return err
}

// OpenFile loads a template from disk.
func OpenFile(path string) (doc *Document, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = &TemplateError{Name: path, Err: errors.Wrap(err, "failed to read template")}
		return doc, err
	}

	doc, err = Open(data)
	if err != nil {
		var tErr *TemplateError
		if errors.As(err, &tErr) {
			tErr.Name = path
		}
		return doc, err
	}

	return doc, err
}

// Open loads a template from the bytes of a .docx package.
func Open(data []byte) (doc *Document, err error) {
	if len(data) == 0 {
		err = &TemplateError{Err: errors.New("template is empty")}
		return doc, err
	}

	var source *docx.ReplaceDocx
	source, err = docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = &TemplateError{Err: errors.Wrap(err, "failed to read docx package")}
		return doc, err
	}

	pkg := source.Editable()

	var root *node
	root, err = parseXML([]byte(pkg.GetContent()))
	if err != nil {
		_ = source.Close()
		err = &TemplateError{Err: errors.Wrap(err, "failed to parse word/document.xml")}
		return doc, err
	}

	var body *node
	for _, ch := range root.children {
		if ch.is("document") {
			body = ch.child("body")
			break
		}
	}
	if body == nil {
		_ = source.Close()
		err = &TemplateError{Err: errors.New("word/document.xml has no body")}
		return doc, err
	}

	doc = &Document{
		source:       source,
		pkg:          pkg,
		root:         root,
		body:         body,
		styles:       make(map[string]string),
		defaultStyle: "Normal",
	}

	// Styles are optional; a package without them resolves names to style ids.
	doc.loadStyles(data)

	return doc, err
}

func (d *Document) loadStyles(data []byte) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return
	}

	for _, f := range zr.File {
		if f.Name != stylesPart {
			continue
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return
		}
		raw, readErr := io.ReadAll(rc)
		_ = rc.Close()
		if readErr != nil {
			return
		}
		root, parseErr := parseXML(raw)
		if parseErr != nil {
			return
		}
		d.indexStyles(root)
		return
	}
}

func (d *Document) indexStyles(root *node) {
	for _, top := range root.children {
		if !top.is("styles") {
			continue
		}
		for _, st := range top.elements("style") {
			kind, _ := st.attr("type")
			if kind != "paragraph" {
				continue
			}
			id, _ := st.attr("styleId")
			name := id
			if n := st.child("name"); n != nil {
				if v, ok := n.attr("val"); ok {
					name = uiStyleName(v)
				}
			}
			d.styles[id] = name
			if def, _ := st.attr("default"); def == "1" || def == "true" {
				d.defaultStyle = name
			}
		}
	}
}

// uiStyleName maps the lowercase built-in names Word stores to the names it displays.
func uiStyleName(name string) (ui string) {
	lower := strings.ToLower(name)
	switch {
	case lower == "normal", lower == "title", lower == "subtitle", lower == "caption", lower == "header", lower == "footer":
		ui = strings.ToUpper(lower[:1]) + lower[1:]
	case strings.HasPrefix(lower, "heading "):
		ui = "Heading " + strings.TrimPrefix(lower, "heading ")
	default:
		ui = name
	}
	return ui
}

// Paragraphs returns the body-level paragraphs in document order.
func (d *Document) Paragraphs() (paragraphs []*Paragraph) {
	for _, p := range d.body.elements("p") {
		paragraphs = append(paragraphs, &Paragraph{doc: d, n: p})
	}
	return paragraphs
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() (tables []*Table) {
	for _, t := range d.body.elements("tbl") {
		tables = append(tables, &Table{doc: d, n: t})
	}
	return tables
}

// AppendParagraph adds an empty paragraph at the end of the body, before the final section properties.
func (d *Document) AppendParagraph() (p *Paragraph) {
	n := newElement("p")

	idx := len(d.body.children)
	for i := len(d.body.children) - 1; i >= 0; i-- {
		ch := d.body.children[i]
		if ch.is("sectPr") {
			idx = i
			break
		}
		if ch.kind == elementNode {
			break
		}
	}

	d.body.children = append(d.body.children, nil)
	copy(d.body.children[idx+1:], d.body.children[idx:])
	d.body.children[idx] = n

	p = &Paragraph{doc: d, n: n}
	return p
}

// PlainText returns the text of body paragraphs and table cells in document order.
func (d *Document) PlainText() (text string) {
	lines := make([]string, 0)
	for _, ch := range d.body.children {
		switch {
		case ch.is("p"):
			lines = append(lines, (&Paragraph{doc: d, n: ch}).Text())
		case ch.is("tbl"):
			for _, p := range (&Table{doc: d, n: ch}).Paragraphs() {
				lines = append(lines, p.Text())
			}
		}
	}
	text = strings.Join(lines, "\n")
	return text
}

// ReplaceInHeadersFooters replaces old with replacement in every header and footer part.
func (d *Document) ReplaceInHeadersFooters(old, replacement string) (err error) {
	err = d.pkg.ReplaceHeader(old, replacement)
	if err != nil {
		err = errors.Wrap(err, "failed to replace text in headers")
		return err
	}

	err = d.pkg.ReplaceFooter(old, replacement)
	if err != nil {
		err = errors.Wrap(err, "failed to replace text in footers")
		return err
	}

	return err
}

// Write serializes the package to w.
func (d *Document) Write(w io.Writer) (err error) {
	d.pkg.SetContent(string(d.root.render()))

	err = d.pkg.Write(w)
	if err != nil {
		err = errors.Wrap(err, "failed to write docx package")
		return err
	}

	return err
}

// Bytes serializes the package.
func (d *Document) Bytes() (data []byte, err error) {
	var buf bytes.Buffer
	err = d.Write(&buf)
	if err != nil {
		return data, err
	}
	data = buf.Bytes()
	return data, err
}

// Close releases the underlying package reader.
func (d *Document) Close() (err error) {
	err = d.source.Close()
	return err
}
