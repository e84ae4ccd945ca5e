// Package surface is the rendering substrate of the panel: a small element
// tree built declaratively with E and patched in place through a Surface.
package surface

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
)

// Attrs are element attributes.
type Attrs map[string]string

// Node is an element, or a text node when Tag is empty.
type Node struct {
	Tag      string
	Attrs    Attrs
	Text     string
	Children []*Node
}

// E builds an element. Children may be *Node, []*Node, string or anything
// implementing fmt.Stringer; nil children are skipped.
func E(tag string, attrs Attrs, children ...any) *Node {
	n := &Node{Tag: tag, Attrs: attrs}
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	for _, c := range children {
		n.Children = append(n.Children, toNodes(c)...)
	}
	return n
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{Text: s}
}

func toNodes(c any) []*Node {
	switch v := c.(type) {
	case nil:
		return nil
	case *Node:
		if v == nil {
			return nil
		}
		return []*Node{v}
	case []*Node:
		return v
	case string:
		return []*Node{Text(v)}
	case fmt.Stringer:
		return []*Node{Text(v.String())}
	default:
		return []*Node{Text(fmt.Sprint(v))}
	}
}

// ID returns the id attribute.
func (n *Node) ID() string {
	return n.Attrs["id"]
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Tag == "" {
		return n.Text
	}
	var b strings.Builder
	n.walk(func(c *Node) {
		if c.Tag == "" {
			b.WriteString(c.Text)
		}
	})
	return b.String()
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// WriteHTML serializes n. Attributes are written in key order.
func (n *Node) WriteHTML(w io.Writer) error {
	var b strings.Builder
	n.writeHTML(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML returns n serialized.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ` %s="%s"`, k, html.EscapeString(n.Attrs[k]))
	}
	b.WriteByte('>')

	for _, c := range n.Children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
