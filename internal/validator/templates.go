package validator

import (
	"golang.org/x/net/html"

	"github.com/nibzard/taxocard/internal/card"
)

// markerContent and symbolContent are the elements allowed, at any depth,
// inside an arrow head and a segment drawing.
var (
	markerContent = map[string]bool{
		"path": true, "polygon": true, "polyline": true, "circle": true, "line": true, "rect": true,
	}
	symbolContent = map[string]bool{
		"path": true, "line": true, "circle": true, "text": true, "tspan": true, "g": true, "title": true,
	}
)

// collectTemplates records the marker and symbol ids defined by the card so
// that references can be resolved wherever they appear.
func (c *checker) collectTemplates(body *html.Node) {
	for _, el := range card.ElementChildren(body) {
		if section(el) != secTemplates {
			continue
		}
		for _, defs := range card.ElementChildren(el) {
			if !card.IsElement(defs, "defs") {
				continue
			}
			for _, def := range card.ElementChildren(defs) {
				id, _ := card.Attr(def, "id")
				switch def.Data {
				case "marker":
					c.markers[id] = true
				case "symbol":
					c.symbols[id] = true
				}
			}
		}
	}
}

func (c *checker) visitTemplates(svg *html.Node) {
	c.enter(svg)

	children := card.ElementChildren(svg)
	if len(children) == 0 {
		c.report(StructuralViolation, svg, "", "missing <defs>")
	}
	seenDefs := false
	c.eachChild(svg, StructuralViolation, func(el *html.Node) {
		c.enter(el)
		if !card.IsElement(el, "defs") || seenDefs {
			c.report(StructuralViolation, el, el.Data, "templates hold a single <defs>")
			return
		}
		seenDefs = true
		for _, def := range card.ElementChildren(el) {
			switch def.Data {
			case "marker":
				c.visitMarker(def)
			case "symbol":
				c.visitSymbol(def)
			default:
				c.enter(def)
				c.report(DisallowedSvgConstruct, def, def.Data, "only <marker> and <symbol> are allowed in templates")
			}
		}
	})
}

func (c *checker) visitMarker(m *html.Node) {
	c.enter(m)
	id, _ := card.Attr(m, "id")
	name, ok := card.LabelFromMarkerID(id)
	if !ok {
		c.report(StructuralViolation, m, id, "marker id must be {label}%s", card.MarkerSuffix)
		c.walkContent(m, markerContent, "")
		return
	}
	// Unknown labels have no color to compare with.
	color, _ := c.label(m, name)
	c.walkContent(m, markerContent, color)
}

func (c *checker) visitSymbol(s *html.Node) {
	c.enter(s)
	id, _ := card.Attr(s, "id")
	if name, ok := card.SegmentFromSymbolID(id); ok {
		c.segment(s, name)
	} else {
		c.report(StructuralViolation, s, id, "symbol id must be {segment}%s", card.SegmentSuffix)
	}
	c.walkContent(s, symbolContent, "")
}

// walkContent visits the descendants of a template. When fill is set, every
// painted fill must equal it.
func (c *checker) walkContent(n *html.Node, allowed map[string]bool, fill string) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.ElementNode {
			continue
		}
		c.enter(ch)
		if !allowed[ch.Data] {
			c.report(DisallowedSvgConstruct, ch, ch.Data, "element not allowed in <%s>", templateOf(ch))
			continue
		}
		c.noEventHandlers(ch)
		if fill != "" {
			if v, ok := card.Attr(ch, "fill"); ok && v != "none" {
				c.color(ch, "fill", fill)
			}
		}
		c.walkContent(ch, allowed, fill)
	}
}

func templateOf(n *html.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if card.IsElement(p, "marker") || card.IsElement(p, "symbol") {
			return p.Data
		}
	}
	return "defs"
}

// noEventHandlers rejects script attributes such as onclick.
func (c *checker) noEventHandlers(n *html.Node) {
	for _, a := range n.Attr {
		if name := card.AttrName(a); len(name) > 2 && name[:2] == "on" {
			c.report(DisallowedSvgConstruct, n, a.Val, "attribute %s not allowed on <%s>", name, n.Data)
		}
	}
}
