package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"
)

const (
	nsMain     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRel      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	xmlDecl    = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	headerPart = "word/header1.xml"
)

// Line is one body paragraph of a Blueprint. Style is a style id such as "Heading1".
type Line struct {
	Text  string
	Style string
}

// Blueprint describes a fresh template built by New.
type Blueprint struct {
	// PageHeader is the text of the page header part; empty omits the part.
	PageHeader string
	// HeaderLines fill the single cell of a leading table; nil omits the table.
	HeaderLines []string
	Paragraphs  []Line
}

// New builds a styled .docx package from a blueprint.
func New(bp Blueprint) (data []byte, err error) {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML(bp.PageHeader != "")},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", xmlDecl + string(documentTree(bp).render())},
		{"word/_rels/document.xml.rels", documentRelsXML(bp.PageHeader != "")},
		{stylesPart, stylesXML},
	}
	if bp.PageHeader != "" {
		parts = append(parts, struct {
			name    string
			content string
		}{headerPart, xmlDecl + string(pageHeaderTree(bp.PageHeader).render())})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, createErr := zw.Create(part.name)
		if createErr != nil {
			err = errors.Wrapf(createErr, "failed to create part %s", part.name)
			return data, err
		}
		_, err = w.Write([]byte(part.content))
		if err != nil {
			err = errors.Wrapf(err, "failed to write part %s", part.name)
			return data, err
		}
	}

	err = zw.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to finalize docx package")
		return data, err
	}

	data = buf.Bytes()
	return data, err
}

func nsAttr(prefix, value string) (a xml.Attr) {
	a = xml.Attr{Name: xml.Name{Space: "xmlns", Local: prefix}, Value: value}
	return a
}

func styledParagraph(style string) (p *node) {
	p = newElement("p")
	if style != "" {
		ppr := newElement("pPr")
		ppr.children = append(ppr.children, newElement("pStyle", wordAttr("val", style)))
		p.children = append(p.children, ppr)
	}
	return p
}

func documentTree(bp Blueprint) (root *node) {
	body := newElement("body")

	if bp.HeaderLines != nil {
		body.children = append(body.children, headerTable(bp.HeaderLines))
	}

	for _, line := range bp.Paragraphs {
		p := styledParagraph(line.Style)
		if line.Text != "" {
			p.children = append(p.children, buildRun(nil, line.Text))
		}
		body.children = append(body.children, p)
	}

	sect := newElement("sectPr")
	if bp.PageHeader != "" {
		ref := newElement("headerReference", wordAttr("type", "default"))
		ref.attrs = append(ref.attrs, xml.Attr{Name: xml.Name{Space: "r", Local: "id"}, Value: "rId2"})
		sect.children = append(sect.children, ref)
	}
	sect.children = append(sect.children,
		newElement("pgSz", wordAttr("w", "11906"), wordAttr("h", "16838")),
		newElement("pgMar", wordAttr("top", "1440"), wordAttr("right", "1440"), wordAttr("bottom", "1440"), wordAttr("left", "1440")),
	)
	body.children = append(body.children, sect)

	doc := newElement("document", nsAttr("w", nsMain), nsAttr("r", nsRel))
	doc.children = append(doc.children, body)

	root = &node{kind: documentNode, children: []*node{doc}}
	return root
}

func headerTable(lines []string) (tbl *node) {
	tbl = newElement("tbl")

	tblPr := newElement("tblPr")
	tblPr.children = append(tblPr.children,
		newElement("tblStyle", wordAttr("val", "TableGrid")),
		newElement("tblW", wordAttr("w", "0"), wordAttr("type", "auto")),
	)
	grid := newElement("tblGrid")
	grid.children = append(grid.children, newElement("gridCol", wordAttr("w", "9026")))

	tcPr := newElement("tcPr")
	tcPr.children = append(tcPr.children, newElement("tcW", wordAttr("w", "9026"), wordAttr("type", "dxa")))

	p := styledParagraph("Title")
	text := ""
	for i, line := range lines {
		if i > 0 {
			text += "\n"
		}
		text += line
	}
	if text != "" {
		p.children = append(p.children, buildRun(nil, text))
	}

	tc := newElement("tc")
	tc.children = append(tc.children, tcPr, p)
	tr := newElement("tr")
	tr.children = append(tr.children, tc)

	tbl.children = append(tbl.children, tblPr, grid, tr)
	return tbl
}

func pageHeaderTree(text string) (root *node) {
	hdr := newElement("hdr", nsAttr("w", nsMain))
	p := styledParagraph("Header")
	p.children = append(p.children, buildRun(nil, text))
	hdr.children = append(hdr.children, p)
	root = &node{kind: documentNode, children: []*node{hdr}}
	return root
}

func contentTypesXML(withHeader bool) (out string) {
	out = xmlDecl +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`
	if withHeader {
		out += `<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`
	}
	out += `</Types>`
	return out
}

const packageRelsXML = xmlDecl +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func documentRelsXML(withHeader bool) (out string) {
	out = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`
	if withHeader {
		out += `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`
	}
	out += `</Relationships>`
	return out
}

const stylesXML = xmlDecl +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:qFormat/><w:rPr><w:b/><w:color w:val="1F3864"/><w:sz w:val="36"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:pPr><w:spacing w:before="240" w:after="60"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:color w:val="2F5496"/><w:sz w:val="28"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Header"><w:name w:val="header"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders><w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/></w:tblBorders></w:tblPr></w:style>` +
	`</w:styles>`
