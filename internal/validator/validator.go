package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/svgpath"
)

// Option configures a validation.
type Option func(*options)

type options struct {
	spline svgpath.Policy
}

// WithMaxSplineSegments sets how many curve segments a spline may have.
// Values below one keep the default.
func WithMaxSplineSegments(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.spline.MaxSegments = n
		}
	}
}

// Validate checks a parsed card against a configuration snapshot.
func Validate(snap editconfig.Snapshot, doc *card.Document, opts ...Option) Result {
	if snap.IsZero() {
		return Malformed("config", errors.New("empty edit configuration"))
	}
	if doc == nil || doc.Body == nil {
		return Malformed("card", errors.New("card has no body"))
	}

	o := options{spline: svgpath.DefaultPolicy()}
	for _, opt := range opts {
		opt(&o)
	}

	c := newChecker(snap, o)
	c.collectTemplates(doc.Body)
	if doc.Head != nil {
		c.visitHead(doc.Head)
	}
	c.visitBody(doc.Body)
	return newResult(c.violations)
}

// ValidateBytes parses both documents and validates the card.
// Parse failures are reported as a single MalformedInput violation.
func ValidateBytes(configJSON, cardHTML []byte, opts ...Option) Result {
	snap, err := editconfig.ParseSnapshot(configJSON)
	if err != nil {
		return Malformed("config", err)
	}
	doc, err := card.Parse(cardHTML)
	if err != nil {
		return Malformed("card", err)
	}
	return Validate(snap, doc, opts...)
}

// checker accumulates the violations of one validation.
type checker struct {
	snap   editconfig.Snapshot
	spline svgpath.Policy

	violations []Violation

	ids             map[string]bool
	unknownLabels   map[string]bool
	unknownSegments map[string]bool

	// Template ids defined in the svg-templates block.
	markers map[string]bool
	symbols map[string]bool

	// Card taxon, when data-taxoid parsed.
	taxoID    int64
	hasTaxoID bool
}

func newChecker(snap editconfig.Snapshot, o options) *checker {
	return &checker{
		snap:            snap,
		spline:          o.spline,
		ids:             make(map[string]bool),
		unknownLabels:   make(map[string]bool),
		unknownSegments: make(map[string]bool),
		markers:         make(map[string]bool),
		symbols:         make(map[string]bool),
	}
}

func (c *checker) report(kind Kind, n *html.Node, value, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Kind:     kind,
		Location: card.Path(n),
		Value:    value,
		Message:  fmt.Sprintf(format, args...),
	})
}

// enter registers the id of an element. Every visited element goes through it.
func (c *checker) enter(n *html.Node) {
	id, ok := card.Attr(n, "id")
	if !ok {
		return
	}
	if strings.TrimSpace(id) == "" {
		c.report(StructuralViolation, n, id, "empty id")
		return
	}
	if c.ids[id] {
		c.report(StructuralViolation, n, id, "duplicate id")
		return
	}
	c.ids[id] = true
}

// label checks a label name against the configuration and returns its color.
// Unknown names are reported once.
func (c *checker) label(n *html.Node, name string) (string, bool) {
	color, ok := c.snap.LabelColor(name)
	if ok {
		return color, true
	}
	if !c.unknownLabels[name] {
		c.unknownLabels[name] = true
		c.report(UnknownLabelReference, n, name, "label is not in the edit configuration")
	}
	return "", false
}

// segment checks a segment name against the configuration.
// Unknown names are reported once.
func (c *checker) segment(n *html.Node, name string) bool {
	if c.snap.HasSegment(name) {
		return true
	}
	if !c.unknownSegments[name] {
		c.unknownSegments[name] = true
		c.report(UnknownSegmentReference, n, name, "segment is not in the edit configuration")
	}
	return false
}

// color compares a paint attribute with the label color.
func (c *checker) color(n *html.Node, attr, want string) {
	v, ok := card.Attr(n, attr)
	if !ok {
		return
	}
	got, err := editconfig.NormalizeColor(v)
	if err != nil {
		c.report(LabelColorMismatch, n, v, "%s: %v", attr, err)
		return
	}
	if got != want {
		c.report(LabelColorMismatch, n, v, "%s is %s, label color is %s", attr, got, want)
	}
}

// requireAttrs reports every missing or empty attribute of names.
func (c *checker) requireAttrs(n *html.Node, names ...string) {
	for _, name := range names {
		if v, ok := card.Attr(n, name); !ok || strings.TrimSpace(v) == "" {
			c.report(StructuralViolation, n, "", "missing attribute %s", name)
		}
	}
}

// numberAttrs reports present attributes of names that are not numbers.
func (c *checker) numberAttrs(n *html.Node, names ...string) {
	for _, name := range names {
		v, ok := card.Attr(n, name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := parseNumber(v); err != nil {
			c.report(StructuralViolation, n, v, "attribute %s is not a number", name)
		}
	}
}

// onlyAttrs reports attributes outside allowed as disallowed constructs.
func (c *checker) onlyAttrs(n *html.Node, allowed map[string]bool) {
	for _, a := range n.Attr {
		name := card.AttrName(a)
		if allowed[name] {
			continue
		}
		if name == "transform" && strings.Contains(a.Val, "rotate") {
			c.report(DisallowedSvgConstruct, n, a.Val, "rotate transform not allowed on <%s>, orientation must come from coordinates", n.Data)
			continue
		}
		c.report(DisallowedSvgConstruct, n, a.Val, "attribute %s not allowed on <%s>", name, n.Data)
	}
}

// eachChild walks the children of n in document order. Non-blank text is
// reported as kind, elements are handed to fn.
func (c *checker) eachChild(n *html.Node, kind Kind, fn func(el *html.Node)) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case ch.Type == html.ElementNode:
			fn(ch)
		case ch.Type == html.TextNode && !card.IsBlank(ch):
			c.report(kind, ch, strings.TrimSpace(ch.Data), "unexpected text in <%s>", n.Data)
		}
	}
}

// parseNumber accepts SVG numbers only.
func parseNumber(v string) (float64, error) {
	return svgpath.ParseNumber(v)
}

func parseInt(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

var headElements = map[string]bool{"meta": true, "title": true, "link": true, "style": true}

func (c *checker) visitHead(head *html.Node) {
	c.enter(head)
	for _, el := range card.ElementChildren(head) {
		c.enter(el)
		if !headElements[el.Data] {
			c.report(StructuralViolation, el, el.Data, "element not allowed in <head>")
		}
	}
}

// Body children, in required order.
const (
	secTemplates = iota
	secCriteria
	secDescriptive
	secMoreExamples
	secPhotos
	secConfusions
)

func section(n *html.Node) int {
	switch {
	case card.IsElement(n, "svg") && card.HasClass(n, card.ClassTemplates):
		return secTemplates
	case card.IsElement(n, "article") && card.HasClass(n, card.ClassMorphoCriteria):
		return secCriteria
	case card.IsElement(n, "div") && card.HasClass(n, card.ClassDescriptiveSchemas):
		return secDescriptive
	case card.IsElement(n, "div") && card.HasClass(n, card.ClassMoreExamples):
		return secMoreExamples
	case card.IsElement(n, "div") && card.HasClass(n, card.ClassPhotosAndFigures):
		return secPhotos
	case card.IsElement(n, "div") && card.HasClass(n, card.ClassPossibleConfusions):
		return secConfusions
	}
	return -1
}

func (c *checker) visitBody(body *html.Node) {
	c.enter(body)
	c.checkMetadata(body)

	children := card.ElementChildren(body)
	hasCriteria := false
	for _, el := range children {
		if section(el) == secCriteria {
			hasCriteria = true
		}
	}
	if !hasCriteria {
		c.report(StructuralViolation, body, "", "missing <article class=%q>", card.ClassMorphoCriteria)
	}

	last := -1
	c.eachChild(body, StructuralViolation, func(el *html.Node) {
		sec := section(el)
		if sec < 0 {
			c.enter(el)
			c.report(StructuralViolation, el, el.Data, "unexpected element in <body>")
			return
		}
		if sec <= last {
			c.enter(el)
			c.report(StructuralViolation, el, el.Data, "section repeated or out of order")
			return
		}
		last = sec
		switch sec {
		case secTemplates:
			c.visitTemplates(el)
		case secCriteria:
			c.visitCriteria(el)
		case secDescriptive:
			c.visitViewSection(el, true)
		case secMoreExamples:
			c.visitViewSection(el, false)
		case secPhotos:
			c.visitPhotos(el)
		case secConfusions:
			c.visitConfusions(el)
		}
	})
}

func (c *checker) checkMetadata(body *html.Node) {
	for _, a := range body.Attr {
		if name := card.AttrName(a); !strings.HasPrefix(name, "data-") {
			c.report(StructuralViolation, body, name, "only data-* attributes are allowed on <body>")
		}
	}

	rawTaxo, ok := card.Attr(body, card.AttrTaxoID)
	switch {
	case !ok || strings.TrimSpace(rawTaxo) == "":
		c.report(StructuralViolation, body, "", "missing attribute %s", card.AttrTaxoID)
	default:
		taxo, err := parseInt(rawTaxo)
		if err != nil {
			c.report(StructuralViolation, body, rawTaxo, "%s is not an integer", card.AttrTaxoID)
			break
		}
		c.taxoID, c.hasTaxoID = taxo, true
		if taxo != c.snap.TaxoID() {
			c.report(IdentifierMismatch, body, rawTaxo, "%s does not match configuration taxoid %d", card.AttrTaxoID, c.snap.TaxoID())
		}
	}

	instr, ok := card.Attr(body, card.AttrInstrumentID)
	switch {
	case !ok || strings.TrimSpace(instr) == "":
		c.report(StructuralViolation, body, "", "missing attribute %s", card.AttrInstrumentID)
	case instr != c.snap.InstrumentID():
		c.report(IdentifierMismatch, body, instr, "%s does not match configuration instrumentid %q", card.AttrInstrumentID, c.snap.InstrumentID())
	}
}
