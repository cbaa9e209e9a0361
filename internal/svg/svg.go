// Package svg wraps an xmlquery node tree with the parsing, serialization,
// and mutation helpers the translation pipeline needs. Serialization is
// deterministic: the same tree always encodes to the same bytes, so a
// canonical document survives repeated parse/encode round trips unchanged.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Namespace is the SVG default namespace URI.
const Namespace = "http://www.w3.org/2000/svg"

// Document is a parsed SVG document.
type Document struct {
	doc *xmlquery.Node
}

// Parse reads an XML document from r. Whitespace-only text between elements
// is dropped so that encoding does not depend on source indentation.
func Parse(r io.Reader) (*Document, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	stripBlankText(doc)
	return &Document{doc: doc}, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// ParseFile parses the document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open svg file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Root returns the document element, or nil if the document has none.
func (d *Document) Root() *xmlquery.Node {
	for c := d.doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// Clone deep-copies the whole document.
func (d *Document) Clone() *Document {
	return &Document{doc: CloneNode(d.doc)}
}

// Find returns all descendant elements of the document with the given local
// name, in document order.
func (d *Document) Find(local string) []*xmlquery.Node {
	return xmlquery.Find(d.doc, "//"+local)
}

// Encode serializes the document with an XML declaration. The output is
// byte-stable: attribute order and child order are preserved as stored.
func (d *Document) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteByte('\n')
	for c := d.doc.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&buf, c)
	}
	return buf.Bytes()
}

func (d *Document) String() string {
	return string(d.Encode())
}

// stripBlankText removes text nodes that contain only whitespace. These are
// formatting artifacts of the source document and would make output depend
// on input indentation.
func stripBlankText(n *xmlquery.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == xmlquery.TextNode && strings.TrimSpace(c.Data) == "" {
			RemoveNode(c)
		} else {
			stripBlankText(c)
		}
		c = next
	}
}

// --- node construction ---

// NewElement creates a detached element in the SVG namespace.
func NewElement(local string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		NamespaceURI: Namespace,
	}
}

// NewText creates a detached text node.
func NewText(text string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: text}
}

// CloneNode deep-copies a node and its subtree. The copy is detached.
func CloneNode(n *xmlquery.Node) *xmlquery.Node {
	nn := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	if len(n.Attr) > 0 {
		nn.Attr = make([]xmlquery.Attr, len(n.Attr))
		copy(nn.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		AppendChild(nn, CloneNode(c))
	}
	return nn
}

// --- attributes ---

// Attr returns the value of the named attribute, or "".
func Attr(n *xmlquery.Node, name string) string {
	for _, a := range n.Attr {
		if attrName(a) == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func HasAttr(n *xmlquery.Node, name string) bool {
	for _, a := range n.Attr {
		if attrName(a) == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces the named attribute, keeping attribute order
// stable for existing attributes.
func SetAttr(n *xmlquery.Node, name, value string) {
	for i, a := range n.Attr {
		if attrName(a) == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{Name: xml.Name{Local: name}, Value: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *xmlquery.Node, name string) {
	for i, a := range n.Attr {
		if attrName(a) == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func attrName(a xmlquery.Attr) string {
	if a.Name.Space != "" {
		return a.Name.Space + ":" + a.Name.Local
	}
	return a.Name.Local
}

// --- tree structure ---

// IsElement reports whether n is an element with the given local name.
func IsElement(n *xmlquery.Node, local string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == local
}

// Children returns a snapshot of n's direct children, safe to iterate while
// mutating the tree.
func Children(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildElements returns a snapshot of n's direct element children with the
// given local name ("" matches every element).
func ChildElements(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && (local == "" || c.Data == local) {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated text content of n's subtree.
func Text(n *xmlquery.Node) string {
	return n.InnerText()
}

// SetText replaces n's children with a single text node holding text.
func SetText(n *xmlquery.Node, text string) {
	for _, c := range Children(n) {
		RemoveNode(c)
	}
	AppendChild(n, NewText(text))
}

// AppendChild attaches n as the last child of parent.
func AppendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.NextSibling = nil
	if parent.FirstChild == nil {
		n.PrevSibling = nil
		parent.FirstChild = n
	} else {
		last := parent.LastChild
		last.NextSibling = n
		n.PrevSibling = last
	}
	parent.LastChild = n
}

// InsertBefore attaches n as the sibling immediately preceding ref.
func InsertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.PrevSibling = ref.PrevSibling
	n.NextSibling = ref
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// RemoveNode detaches n from its parent. Detached nodes can be re-attached
// with AppendChild or InsertBefore.
func RemoveNode(n *xmlquery.Node) {
	if n.Parent == nil {
		return
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else {
		n.Parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else {
		n.Parent.LastChild = n.PrevSibling
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

// --- serialization ---

func writeNode(buf *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		buf.WriteString(escapeText(n.Data))
	case xmlquery.CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case xmlquery.DeclarationNode:
		// The encoder writes its own declaration.
	case xmlquery.ElementNode:
		buf.WriteByte('<')
		buf.WriteString(elementName(n))
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			buf.WriteString(attrName(a))
			buf.WriteString(`="`)
			buf.WriteString(escapeAttr(a.Value))
			buf.WriteByte('"')
		}
		if n.FirstChild == nil {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(elementName(n))
		buf.WriteByte('>')
	}
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\t", "&#9;",
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
