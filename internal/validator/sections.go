package validator

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nibzard/taxocard/internal/card"
)

// maxConfusionViews bounds the views shown for one confusing taxon.
const maxConfusionViews = 2

func (c *checker) visitPhotos(div *html.Node) {
	c.enter(div)
	c.eachChild(div, StructuralViolation, func(el *html.Node) {
		c.enter(el)
		if !card.IsElement(el, "a") {
			c.report(StructuralViolation, el, el.Data, "only links are allowed in photos and figures")
			return
		}
		href, _ := card.Attr(el, "href")
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			c.report(StructuralViolation, el, href, "link must be an http(s) URL")
		}
		for _, a := range el.Attr {
			if name := card.AttrName(a); name != "href" {
				c.report(StructuralViolation, el, name, "attribute %s not allowed on a link", name)
			}
		}
		if strings.TrimSpace(card.TextContent(el)) == "" {
			c.report(StructuralViolation, el, href, "link has no text")
		}
		for _, ch := range card.ElementChildren(el) {
			c.enter(ch)
			c.report(StructuralViolation, ch, ch.Data, "link holds text only")
		}
	})
}

func (c *checker) visitConfusions(div *html.Node) {
	c.enter(div)
	c.eachChild(div, StructuralViolation, func(el *html.Node) {
		if !card.IsElement(el, "div") || !card.HasClass(el, card.ClassConfusion) {
			c.enter(el)
			c.report(StructuralViolation, el, el.Data, "only <div class=%q> is allowed in possible confusions", card.ClassConfusion)
			return
		}
		c.visitConfusion(el)
	})
}

func (c *checker) visitConfusion(div *html.Node) {
	c.enter(div)
	for _, a := range div.Attr {
		if name := card.AttrName(a); name != "class" && name != card.AttrConfusingTaxoID {
			c.report(StructuralViolation, div, name, "attribute %s not allowed on a confusion", name)
		}
	}

	raw, ok := card.Attr(div, card.AttrConfusingTaxoID)
	switch {
	case !ok || strings.TrimSpace(raw) == "":
		c.report(StructuralViolation, div, "", "missing attribute %s", card.AttrConfusingTaxoID)
	default:
		taxo, err := parseInt(raw)
		if err != nil {
			c.report(StructuralViolation, div, raw, "%s is not an integer", card.AttrConfusingTaxoID)
		} else if c.hasTaxoID && taxo == c.taxoID {
			c.report(IdentifierMismatch, div, raw, "a taxon cannot be confused with itself")
		}
	}

	views := card.ElementChildren(div)
	if len(views) == 0 || len(views) > maxConfusionViews {
		c.report(StructuralViolation, div, "", "a confusion holds one or two views, found %d", len(views))
	}
	c.eachChild(div, StructuralViolation, func(el *html.Node) {
		if !card.IsElement(el, "div") {
			c.enter(el)
			c.report(StructuralViolation, el, el.Data, "only views are allowed in a confusion")
			return
		}
		c.visitView(el, false, nil)
	})
}
