package validator

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nibzard/taxocard/internal/card"
)

// Allowed attributes per schema element.
var (
	schemaSVGAttrs = attrSet("viewBox", "width", "height", "xmlns", "xmlns:xlink", "version", "preserveAspectRatio")
	groupAttrs     = attrSet("class")
	backgroundAttr = attrSet("id", "class", "x", "y", "width", "height", "viewBox", "preserveAspectRatio")
	imageAttrs     = attrSet("href", "xlink:href", "x", "y", "width", "height", "preserveAspectRatio")
	lineAttrs      = attrSet("id", card.AttrLabel, "x1", "y1", "x2", "y2", "marker-start", "marker-end", "stroke", "stroke-width", "class")
	circleAttrs    = attrSet("id", card.AttrLabel, "cx", "cy", "r", "stroke", "stroke-width", "fill", "class")
	pathAttrs      = attrSet("id", card.AttrLabel, "d", "marker-start", "marker-end", "stroke", "stroke-width", "fill", "class")
	useAttrs       = attrSet("id", "href", "xlink:href", "x", "y", "width", "height", "transform", "class")
	rectAttrs      = attrSet("id", "class", "x", "y", "width", "height", "stroke", "stroke-width", "fill")
	viewAttrs      = attrSet("class", card.AttrViewName, card.AttrInstance, card.AttrObjectID)
)

func attrSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Angles a segment drawing may be rotated by.
var useAngles = map[float64]bool{-90: true, -45: true, 0: true, 45: true, 90: true}

var rotateRe = regexp.MustCompile(`^\s*rotate\(\s*([-+]?[0-9.eE+-]+)[\s,]+([-+]?[0-9.eE+-]+)[\s,]+([-+]?[0-9.eE+-]+)\s*\)\s*$`)

// centreTolerance absorbs rounding of the rotation centre by the editor.
const centreTolerance = 0.01

// visitViewSection checks descriptive-schemas and more-examples.
func (c *checker) visitViewSection(div *html.Node, descriptive bool) {
	c.enter(div)
	// View names are unique among descriptive schemas only.
	var names map[string]bool
	if descriptive {
		names = make(map[string]bool)
	}
	c.eachChild(div, StructuralViolation, func(el *html.Node) {
		if !card.IsElement(el, "div") {
			c.enter(el)
			c.report(StructuralViolation, el, el.Data, "only views are allowed in <div class=%q>", strings.Join(card.Classes(div), " "))
			return
		}
		c.visitView(el, descriptive, names)
	})
}

// visitView checks one view. When names is not nil the view name must not
// be in it, and is added.
func (c *checker) visitView(div *html.Node, descriptive bool, names map[string]bool) {
	c.enter(div)
	for _, a := range div.Attr {
		if name := card.AttrName(a); !viewAttrs[name] {
			c.report(StructuralViolation, div, name, "attribute %s not allowed on a view", name)
		}
	}
	c.requireAttrs(div, card.AttrViewName, card.AttrInstance, card.AttrObjectID)
	if v, ok := card.Attr(div, card.AttrObjectID); ok && strings.TrimSpace(v) != "" {
		if _, err := parseInt(v); err != nil {
			c.report(StructuralViolation, div, v, "%s is not an integer", card.AttrObjectID)
		}
	}
	name, _ := card.Attr(div, card.AttrViewName)
	if name != "" && !c.snap.AllowsView(name) {
		c.report(StructuralViolation, div, name, "view name is not in the edit configuration")
	}
	if names != nil && name != "" {
		if names[name] {
			c.report(StructuralViolation, div, name, "duplicate view name")
		}
		names[name] = true
	}

	children := card.ElementChildren(div)
	svgs := 0
	for _, el := range children {
		if card.IsElement(el, "svg") {
			svgs++
		}
	}
	if svgs != 1 {
		c.report(StructuralViolation, div, "", "a view holds exactly one <svg>, found %d", svgs)
	}
	c.eachChild(div, StructuralViolation, func(el *html.Node) {
		if card.IsElement(el, "svg") {
			c.visitSchema(el, descriptive)
			return
		}
		c.enter(el)
		c.report(StructuralViolation, el, el.Data, "element not allowed in a view")
	})
}

// visitSchema checks the drawing of a view. Segment drawings are only allowed
// in descriptive schemas.
func (c *checker) visitSchema(svg *html.Node, allowUse bool) {
	c.enter(svg)
	c.onlyAttrs(svg, schemaSVGAttrs)

	children := card.ElementChildren(svg)
	hasShapes := len(children) > 0 && isGroup(children[0], card.ClassShapes)
	if !hasShapes {
		c.report(StructuralViolation, svg, "", "first element of a schema must be <g class=%q>", card.ClassShapes)
	}
	c.eachChild(svg, DisallowedSvgConstruct, func(el *html.Node) {
		switch {
		case hasShapes && el == children[0]:
			c.visitShapes(el, allowUse)
		case hasShapes && len(children) > 1 && el == children[1] && isGroup(el, card.ClassZooms):
			c.visitZooms(el)
		case card.IsElement(el, "defs"):
			c.enter(el)
			c.report(DisallowedSvgConstruct, el, el.Data, "definitions belong in the templates")
		default:
			c.enter(el)
			c.report(DisallowedSvgConstruct, el, el.Data, "element not allowed in a schema")
		}
	})
}

func isGroup(n *html.Node, class string) bool {
	return card.IsElement(n, "g") && card.HasClass(n, class)
}

func (c *checker) visitShapes(g *html.Node, allowUse bool) {
	c.enter(g)
	c.onlyAttrs(g, groupAttrs)

	children := card.ElementChildren(g)
	backgrounds := 0
	for _, el := range children {
		if isBackground(el) {
			backgrounds++
		}
	}
	if backgrounds != 1 {
		c.report(StructuralViolation, g, "", "shapes hold exactly one <svg class=%q>, found %d", card.ClassBackground, backgrounds)
	}

	c.eachChild(g, DisallowedSvgConstruct, func(el *html.Node) {
		switch {
		case card.IsElement(el, "title"):
			c.enter(el)
			c.onlyAttrs(el, nil)
			for ch := el.FirstChild; ch != nil; ch = ch.NextSibling {
				if ch.Type == html.ElementNode {
					c.enter(ch)
					c.report(DisallowedSvgConstruct, ch, ch.Data, "<title> holds text only")
				}
			}
		case isBackground(el):
			c.visitBackground(el)
		case card.IsElement(el, "line"), card.IsElement(el, "circle"), card.IsElement(el, "path"):
			c.visitShape(el)
		case card.IsElement(el, "use"):
			c.visitUse(el, allowUse)
		default:
			c.enter(el)
			c.report(DisallowedSvgConstruct, el, el.Data, "element not allowed in a schema")
		}
	})
}

func isBackground(n *html.Node) bool {
	return card.IsElement(n, "svg") && card.HasClass(n, card.ClassBackground)
}

func (c *checker) visitBackground(svg *html.Node) {
	c.enter(svg)
	c.onlyAttrs(svg, backgroundAttr)
	c.requireAttrs(svg, "id")

	children := card.ElementChildren(svg)
	images := 0
	for _, el := range children {
		if card.IsElement(el, "image") {
			images++
		}
	}
	if images != 1 {
		c.report(StructuralViolation, svg, "", "background holds exactly one <image>, found %d", images)
	}
	c.eachChild(svg, DisallowedSvgConstruct, func(el *html.Node) {
		c.enter(el)
		if !card.IsElement(el, "image") {
			c.report(DisallowedSvgConstruct, el, el.Data, "element not allowed in the background")
			return
		}
		c.onlyAttrs(el, imageAttrs)
		if href, ok := card.Href(el); !ok || strings.TrimSpace(href) == "" {
			c.report(StructuralViolation, el, "", "missing attribute href")
		}
		c.requireAttrs(el, "x", "y", "width", "height")
		c.numberAttrs(el, "x", "y", "width", "height")
		x, _ := card.Attr(el, "x")
		y, _ := card.Attr(el, "y")
		if isNonZero(x) || isNonZero(y) {
			c.report(DisallowedSvgConstruct, el, x+","+y, "background image must sit at (0, 0)")
		}
	})
}

func isNonZero(v string) bool {
	f, err := parseNumber(v)
	return err == nil && f != 0
}

// visitShape checks a line, circle or path.
func (c *checker) visitShape(el *html.Node) {
	c.enter(el)
	if c.snap.Simplified() {
		c.report(DisallowedSvgConstruct, el, el.Data, "drawings are not allowed in a simplified card")
		return
	}

	var coords []string
	switch el.Data {
	case "line":
		c.onlyAttrs(el, lineAttrs)
		coords = []string{"x1", "y1", "x2", "y2"}
	case "circle":
		c.onlyAttrs(el, circleAttrs)
		coords = []string{"cx", "cy", "r"}
	case "path":
		c.onlyAttrs(el, pathAttrs)
		coords = []string{"d"}
	}
	c.requireAttrs(el, "id", card.AttrLabel)
	c.requireAttrs(el, coords...)
	if el.Data != "path" {
		c.numberAttrs(el, coords...)
	}
	c.numberAttrs(el, "stroke-width")
	if el.Data == "line" {
		c.straightLine(el)
	}

	name, _ := card.Attr(el, card.AttrLabel)
	var color string
	known := false
	if name != "" {
		color, known = c.label(el, name)
	}
	if known {
		c.color(el, "stroke", color)
		if el.Data == "circle" {
			if fill, ok := card.Attr(el, "fill"); ok && fill != "none" {
				c.color(el, "fill", color)
			}
		}
	}
	if el.Data == "path" {
		if fill, ok := card.Attr(el, "fill"); ok && fill != "none" {
			c.report(DisallowedSvgConstruct, el, fill, "a spline must not be filled")
		}
		if d, ok := card.Attr(el, "d"); ok && strings.TrimSpace(d) != "" {
			c.checkSpline(el, d)
		}
	}
	if el.Data != "circle" {
		c.markerRef(el, "marker-start", name, known)
		c.markerRef(el, "marker-end", name, known)
	}
	c.noChildren(el)
}

// straightLine requires a line to be horizontal or vertical.
func (c *checker) straightLine(el *html.Node) {
	var raw [4]string
	var p [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		raw[i], _ = card.Attr(el, name)
		f, err := parseNumber(raw[i])
		if err != nil {
			// Already reported as missing or non numeric.
			return
		}
		p[i] = f
	}
	if p[0] != p[2] && p[1] != p[3] {
		c.report(DisallowedSvgConstruct, el, raw[0]+","+raw[1]+" "+raw[2]+","+raw[3], "a line must be horizontal or vertical")
	}
}

// markerRef checks that an arrow head is the one of the shape's label.
func (c *checker) markerRef(el *html.Node, attr, label string, known bool) {
	v, ok := card.Attr(el, attr)
	if !ok {
		return
	}
	id, ok := card.URLRef(v)
	if !ok {
		c.report(StructuralViolation, el, v, "%s must be url(#id)", attr)
		return
	}
	if known && id != card.MarkerID(label) {
		c.report(LabelColorMismatch, el, v, "%s is not the arrow head of label %s", attr, label)
		return
	}
	if !c.markers[id] {
		c.report(StructuralViolation, el, v, "%s references an undefined marker", attr)
	}
}

func (c *checker) checkSpline(el *html.Node, d string) {
	for _, p := range c.spline.CheckSpline(d) {
		value := p.Command
		if value == "" {
			value = d
		}
		c.report(DisallowedSvgConstruct, el, value, "%s", p.Msg)
	}
}

// visitUse checks the placement of a segment drawing.
func (c *checker) visitUse(el *html.Node, allowed bool) {
	c.enter(el)
	if !allowed {
		c.report(DisallowedSvgConstruct, el, el.Data, "segments are only allowed in descriptive schemas")
		return
	}
	if c.snap.Simplified() {
		c.report(DisallowedSvgConstruct, el, el.Data, "drawings are not allowed in a simplified card")
		return
	}
	c.onlyAttrs(el, useAttrs)
	c.requireAttrs(el, "id", "x", "y", "width", "height")
	c.numberAttrs(el, "x", "y", "width", "height")

	href, ok := card.Href(el)
	if !ok || strings.TrimSpace(href) == "" {
		c.report(StructuralViolation, el, "", "missing attribute href")
	} else if id, ok := card.HrefRef(href); !ok {
		c.report(StructuralViolation, el, href, "href must reference a segment symbol")
	} else if name, ok := card.SegmentFromSymbolID(id); !ok {
		c.report(StructuralViolation, el, href, "href must reference a segment symbol")
	} else if c.segment(el, name) && !c.symbols[id] {
		c.report(StructuralViolation, el, href, "href references an undefined symbol")
	}

	if t, ok := card.Attr(el, "transform"); ok {
		c.useTransform(el, t)
	}
	c.noChildren(el)
}

// useTransform allows a quarter or eighth turn around the centre of the use box.
func (c *checker) useTransform(el *html.Node, t string) {
	m := rotateRe.FindStringSubmatch(t)
	if m == nil {
		c.report(DisallowedSvgConstruct, el, t, "only rotate(angle cx cy) is allowed on <use>")
		return
	}
	angle, errA := parseNumber(m[1])
	cx, errX := parseNumber(m[2])
	cy, errY := parseNumber(m[3])
	if errA != nil || errX != nil || errY != nil {
		c.report(DisallowedSvgConstruct, el, t, "rotate arguments are not numbers")
		return
	}
	if !useAngles[angle] {
		c.report(DisallowedSvgConstruct, el, t, "rotation angle must be one of -90, -45, 0, 45, 90")
	}

	x, _ := card.Attr(el, "x")
	y, _ := card.Attr(el, "y")
	w, _ := card.Attr(el, "width")
	h, _ := card.Attr(el, "height")
	xf, errX := parseNumber(x)
	yf, errY := parseNumber(y)
	wf, errW := parseNumber(w)
	hf, errH := parseNumber(h)
	if errX != nil || errY != nil || errW != nil || errH != nil {
		// Already reported as missing or non numeric.
		return
	}
	if math.Abs(cx-(xf+wf/2)) > centreTolerance || math.Abs(cy-(yf+hf/2)) > centreTolerance {
		c.report(DisallowedSvgConstruct, el, t, "rotation centre must be the centre of the segment box")
	}
}

func (c *checker) visitZooms(g *html.Node) {
	c.enter(g)
	c.onlyAttrs(g, groupAttrs)
	c.eachChild(g, DisallowedSvgConstruct, func(el *html.Node) {
		c.enter(el)
		if !card.IsElement(el, "rect") {
			c.report(DisallowedSvgConstruct, el, el.Data, "only <rect> is allowed in zooms")
			return
		}
		c.onlyAttrs(el, rectAttrs)
		c.requireAttrs(el, "x", "y", "width", "height")
		c.numberAttrs(el, "x", "y", "width", "height", "stroke-width")
		c.noChildren(el)
	})
}

// noChildren rejects content inside a primitive.
func (c *checker) noChildren(el *html.Node) {
	for ch := el.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case ch.Type == html.ElementNode:
			c.enter(ch)
			c.report(DisallowedSvgConstruct, ch, ch.Data, "<%s> must be empty", el.Data)
		case ch.Type == html.TextNode && !card.IsBlank(ch):
			c.report(DisallowedSvgConstruct, ch, strings.TrimSpace(ch.Data), "<%s> must be empty", el.Data)
		}
	}
}
