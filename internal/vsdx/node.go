package vsdx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one element or text run in a part tree. Elements keep attributes
// and children in document order. A text run has a zero Name and carries its
// content in Text, whitespace included, so serialization reproduces the
// original layout of untouched regions.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// xmlNamespace is the reserved namespace bound to the "xml" prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ParsePart decodes an XML part into its root element node. Comments and
// processing instructions are not represented.
func ParsePart(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no root element")
		}

		if err != nil {
			return nil, err
		}

		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	n := &Node{
		Name:  start.Name,
		Attrs: append([]xml.Attr(nil), start.Attr...),
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}

			n.Children = append(n.Children, child)

		case xml.CharData:
			n.Children = append(n.Children, &Node{Text: string(t)})

		case xml.EndElement:
			return n, nil
		}
	}
}

// Marshal serializes the tree as a standalone XML part with declaration.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)

	err := n.write(&buf, nsScope{})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// nsScope tracks in-scope namespace declarations during serialization.
type nsScope struct {
	def      string            // default namespace URI
	prefixes map[string]string // URI -> declared prefix
}

func (s nsScope) extend(attrs []xml.Attr) nsScope {
	out := s

	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			out.def = a.Value

		case a.Name.Space == "xmlns":
			prefixes := make(map[string]string, len(s.prefixes)+1)
			for uri, p := range out.prefixes {
				prefixes[uri] = p
			}

			prefixes[a.Value] = a.Name.Local
			out.prefixes = prefixes
		}
	}

	return out
}

func (s nsScope) element(name xml.Name) (string, error) {
	switch {
	case name.Space == "" || name.Space == s.def:
		return name.Local, nil

	case name.Space == xmlNamespace:
		return "xml:" + name.Local, nil
	}

	if p, ok := s.prefixes[name.Space]; ok {
		return p + ":" + name.Local, nil
	}

	return "", fmt.Errorf("element %s: namespace %q not declared in scope", name.Local, name.Space)
}

func (s nsScope) attribute(name xml.Name) (string, error) {
	switch {
	case name.Space == "":
		return name.Local, nil

	case name.Space == "xmlns":
		return "xmlns:" + name.Local, nil

	case name.Space == xmlNamespace:
		return "xml:" + name.Local, nil
	}

	if p, ok := s.prefixes[name.Space]; ok && p != "" {
		return p + ":" + name.Local, nil
	}

	return "", fmt.Errorf("attribute %s: namespace %q has no declared prefix", name.Local, name.Space)
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
)

func (n *Node) write(buf *bytes.Buffer, scope nsScope) error {
	if !n.IsElement() {
		buf.WriteString(textEscaper.Replace(n.Text))

		return nil
	}

	scope = scope.extend(n.Attrs)

	tag, err := scope.element(n.Name)
	if err != nil {
		return err
	}

	buf.WriteByte('<')
	buf.WriteString(tag)

	for _, a := range n.Attrs {
		name, err := scope.attribute(a.Name)
		if err != nil {
			return err
		}

		buf.WriteByte(' ')
		buf.WriteString(name)
		buf.WriteString(`="`)
		buf.WriteString(attrEscaper.Replace(a.Value))
		buf.WriteByte('"')
	}

	if len(n.Children) == 0 {
		buf.WriteString("/>")

		return nil
	}

	buf.WriteByte('>')

	for _, c := range n.Children {
		err := c.write(buf, scope)
		if err != nil {
			return err
		}
	}

	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteByte('>')

	return nil
}

// IsElement reports whether the node is an element rather than a text run.
func (n *Node) IsElement() bool {
	return n.Name.Local != ""
}

// Elements returns the direct element children, skipping text runs.
func (n *Node) Elements() []*Node {
	var out []*Node

	for _, c := range n.Children {
		if c.IsElement() {
			out = append(out, c)
		}
	}

	return out
}

// FindAll returns the direct element children with the given local name.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if c.IsElement() && c.Name.Local == local {
			out = append(out, c)
		}
	}

	return out
}

// Find returns the first direct element child with the given local name,
// or nil when absent.
func (n *Node) Find(local string) *Node {
	for _, c := range n.Children {
		if c.IsElement() && c.Name.Local == local {
			return c
		}
	}

	return nil
}

// Attr returns the value of the attribute with the given local name and
// whether it is present. Namespace prefixes are ignored: part vocabularies
// here never carry two attributes differing only in namespace.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}

	return "", false
}

// AttrValue returns the attribute value, or "" when absent.
func (n *Node) AttrValue(local string) string {
	v, _ := n.Attr(local)

	return v
}

// SetAttr updates the attribute with the given local name, appending an
// unprefixed attribute when absent. An existing attribute keeps its
// namespace.
func (n *Node) SetAttr(local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == local {
			n.Attrs[i].Value = value

			return
		}
	}

	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// RemoveAttr deletes the attribute with the given local name. Returns true
// when an attribute was removed.
func (n *Node) RemoveAttr(local string) bool {
	for i, a := range n.Attrs {
		if a.Name.Local == local {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)

			return true
		}
	}

	return false
}

// RemoveChildren deletes the direct element children matching pred and
// returns how many were removed. Text runs are kept.
func (n *Node) RemoveChildren(pred func(*Node) bool) int {
	removed := 0
	kept := n.Children[:0]

	for _, c := range n.Children {
		if c.IsElement() && pred(c) {
			removed++

			continue
		}

		kept = append(kept, c)
	}

	n.Children = kept

	return removed
}

// AppendChild appends a child node.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// InnerText returns the concatenated text content of the subtree.
func (n *Node) InnerText() string {
	var sb strings.Builder

	n.innerText(&sb)

	return sb.String()
}

func (n *Node) innerText(sb *strings.Builder) {
	if !n.IsElement() {
		sb.WriteString(n.Text)

		return
	}

	for _, c := range n.Children {
		c.innerText(sb)
	}
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	out := &Node{
		Name: n.Name,
		Text: n.Text,
	}

	if n.Attrs != nil {
		out.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}

	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}

	return out
}

// NewElement returns an element node with the given namespace and local name.
func NewElement(space, local string) *Node {
	return &Node{Name: xml.Name{Space: space, Local: local}}
}
