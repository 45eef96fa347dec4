package docx

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// wordPrefix is the namespace prefix WordprocessingML parts use for the main namespace.
const wordPrefix = "w"

type nodeKind int

const (
	documentNode nodeKind = iota
	elementNode
	textNode
	procInstNode
	commentNode
	directiveNode
)

// node is a lossless XML tree. Names keep the prefix exactly as written in the part.
type node struct {
	kind     nodeKind
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	data     []byte
	target   string
}

// parseXML reads a part into a node tree without resolving namespaces.
func parseXML(data []byte) (root *node, err error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root = &node{kind: documentNode}
	stack := []*node{root}

	for {
		var tok xml.Token
		tok, err = dec.RawToken()
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			err = errors.Wrap(err, "failed to tokenize xml")
			return root, err
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{kind: elementNode, name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 1 || stack[len(stack)-1].name != t.Name {
				err = errors.Errorf("unbalanced end element </%s>", qualified(t.Name))
				return root, err
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent.children = append(parent.children, &node{kind: textNode, data: t.Copy()})
		case xml.Comment:
			parent.children = append(parent.children, &node{kind: commentNode, data: t.Copy()})
		case xml.ProcInst:
			parent.children = append(parent.children, &node{kind: procInstNode, target: t.Target, data: append([]byte(nil), t.Inst...)})
		case xml.Directive:
			parent.children = append(parent.children, &node{kind: directiveNode, data: t.Copy()})
		}
	}

	if len(stack) != 1 {
		err = errors.Errorf("unclosed element <%s>", qualified(stack[len(stack)-1].name))
		return root, err
	}

	return root, err
}

// render serializes the tree back to XML.
func (n *node) render() (out []byte) {
	var buf bytes.Buffer
	n.write(&buf)
	out = buf.Bytes()
	return out
}

func (n *node) write(buf *bytes.Buffer) {
	switch n.kind {
	case documentNode:
		for _, c := range n.children {
			c.write(buf)
		}
	case elementNode:
		buf.WriteByte('<')
		buf.WriteString(qualified(n.name))
		for _, a := range n.attrs {
			buf.WriteByte(' ')
			buf.WriteString(qualified(a.Name))
			buf.WriteString(`="`)
			escape(buf, []byte(a.Value), true)
			buf.WriteByte('"')
		}
		if len(n.children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.children {
			c.write(buf)
		}
		buf.WriteString("</")
		buf.WriteString(qualified(n.name))
		buf.WriteByte('>')
	case textNode:
		escape(buf, n.data, false)
	case procInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.target)
		if len(n.data) > 0 {
			buf.WriteByte(' ')
			buf.Write(n.data)
		}
		buf.WriteString("?>")
	case commentNode:
		buf.WriteString("<!--")
		buf.Write(n.data)
		buf.WriteString("-->")
	case directiveNode:
		buf.WriteString("<!")
		buf.Write(n.data)
		buf.WriteByte('>')
	}
}

func escape(buf *bytes.Buffer, data []byte, attr bool) {
	for _, b := range data {
		switch b {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			if attr {
				buf.WriteString("&quot;")
				continue
			}
			buf.WriteByte(b)
		case '\n':
			if attr {
				buf.WriteString("&#xA;")
				continue
			}
			buf.WriteByte(b)
		case '\t':
			if attr {
				buf.WriteString("&#x9;")
				continue
			}
			buf.WriteByte(b)
		case '\r':
			buf.WriteString("&#xD;")
		default:
			buf.WriteByte(b)
		}
	}
}

func qualified(name xml.Name) (q string) {
	if name.Space == "" {
		q = name.Local
		return q
	}
	q = name.Space + ":" + name.Local
	return q
}

// newElement creates a w: element.
func newElement(local string, attrs ...xml.Attr) (n *node) {
	n = &node{kind: elementNode, name: xml.Name{Space: wordPrefix, Local: local}, attrs: attrs}
	return n
}

func wordAttr(local, value string) (a xml.Attr) {
	a = xml.Attr{Name: xml.Name{Space: wordPrefix, Local: local}, Value: value}
	return a
}

func newText(s string) (n *node) {
	n = &node{kind: textNode, data: []byte(s)}
	return n
}

// is reports whether n is the w: element with the given local name.
func (n *node) is(local string) (ok bool) {
	ok = n != nil && n.kind == elementNode && n.name.Space == wordPrefix && n.name.Local == local
	return ok
}

// child returns the first direct w: child with the given local name.
func (n *node) child(local string) (c *node) {
	for _, ch := range n.children {
		if ch.is(local) {
			c = ch
			return c
		}
	}
	return c
}

// elements returns the direct w: children with the given local name.
func (n *node) elements(local string) (found []*node) {
	for _, ch := range n.children {
		if ch.is(local) {
			found = append(found, ch)
		}
	}
	return found
}

// attr returns the value of a w: attribute.
func (n *node) attr(local string) (value string, ok bool) {
	for _, a := range n.attrs {
		if a.Name.Space == wordPrefix && a.Name.Local == local {
			value = a.Value
			ok = true
			return value, ok
		}
	}
	return value, ok
}

// clone deep-copies the subtree.
func (n *node) clone() (c *node) {
	if n == nil {
		return c
	}
	c = &node{
		kind:   n.kind,
		name:   n.name,
		attrs:  append([]xml.Attr(nil), n.attrs...),
		data:   append([]byte(nil), n.data...),
		target: n.target,
	}
	for _, ch := range n.children {
		c.children = append(c.children, ch.clone())
	}
	return c
}

// textContent concatenates the visible text below n the way Word displays it:
// w:t content, tabs as "\t" and breaks as "\n". Properties, deleted text and
// drawings are skipped.
func (n *node) textContent(buf *bytes.Buffer) {
	for _, ch := range n.children {
		if ch.kind == textNode {
			continue
		}
		switch {
		case ch.is("t"):
			for _, tc := range ch.children {
				if tc.kind == textNode {
					buf.Write(tc.data)
				}
			}
		case ch.is("tab"):
			buf.WriteByte('\t')
		case ch.is("br"), ch.is("cr"):
			buf.WriteByte('\n')
		case ch.is("pPr"), ch.is("rPr"), ch.is("del"), ch.is("drawing"), ch.is("pict"), ch.is("instrText"):
			continue
		case ch.kind == elementNode:
			ch.textContent(buf)
		}
	}
}
