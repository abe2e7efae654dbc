package card

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// AttrName returns the attribute name as written, e.g. "xlink:href" for a
// namespaced SVG attribute.
func AttrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// Attr returns the value of an attribute by its written name.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if AttrName(a) == name {
			return a.Val, true
		}
	}
	return "", false
}

// Href returns the href of an element, preferring the SVG 2 plain attribute
// over the legacy xlink:href.
func Href(n *html.Node) (string, bool) {
	if v, ok := Attr(n, "href"); ok {
		return v, true
	}
	return Attr(n, "xlink:href")
}

// Classes returns the class list of an element.
func Classes(n *html.Node) []string {
	v, ok := Attr(n, "class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element named tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// ElementChildren returns the element children of n, in document order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildElement returns the first element child named tag.
func FirstChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tag) {
			return c
		}
	}
	return nil
}

// IsBlank reports whether n is a comment or a whitespace-only text node.
func IsBlank(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	}
	return false
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Path returns a stable location for n, such as
// /html/body/div.descriptive-schemas/div[2]/svg/g.shapes/line#arrow1.
// Siblings sharing a tag are disambiguated by their 1-based index unless the
// element has an id.
func Path(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		switch cur.Type {
		case html.ElementNode:
			parts = append(parts, step(cur))
		case html.TextNode:
			parts = append(parts, "text()")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func step(n *html.Node) string {
	if id, ok := Attr(n, "id"); ok && id != "" {
		return n.Data + "#" + id
	}
	s := n.Data
	if classes := Classes(n); len(classes) > 0 {
		s += "." + strings.Join(classes, ".")
	}
	if n.Parent == nil {
		return s
	}
	index, total := 0, 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == n.Data {
			total++
			if c == n {
				index = total
			}
		}
	}
	if total > 1 {
		s += fmt.Sprintf("[%d]", index)
	}
	return s
}
