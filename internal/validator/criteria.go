package validator

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/nibzard/taxocard/internal/card"
)

func (c *checker) visitCriteria(article *html.Node) {
	c.enter(article)
	children := card.ElementChildren(article)
	if len(children) == 0 || strings.TrimSpace(card.TextContent(article)) == "" {
		c.report(StructuralViolation, article, "", "morphological criteria are empty")
	}

	c.eachChild(article, StructuralViolation, func(el *html.Node) {
		c.enter(el)
		switch el.Data {
		case "p":
			c.visitRichText(el)
		case "ul":
			c.visitList(el)
		default:
			c.report(StructuralViolation, el, el.Data, "only <p> and <ul> are allowed in morphological criteria")
		}
	})
}

func (c *checker) visitList(ul *html.Node) {
	items := card.ElementChildren(ul)
	if len(items) == 0 {
		c.report(StructuralViolation, ul, "", "empty list")
	}
	c.eachChild(ul, StructuralViolation, func(li *html.Node) {
		c.enter(li)
		if li.Data != "li" {
			c.report(StructuralViolation, li, li.Data, "only <li> is allowed in <ul>")
			return
		}
		if strings.TrimSpace(card.TextContent(li)) == "" {
			c.report(StructuralViolation, li, "", "empty list item")
		}
		c.visitRichText(li)
	})
}

// visitRichText checks text that may only hold emphasis.
func (c *checker) visitRichText(n *html.Node) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case html.TextNode:
			if r, ok := firstSymbol(ch.Data); ok {
				c.report(StructuralViolation, ch, string(r), "symbol character %U not allowed in criteria", r)
			}
		case html.ElementNode:
			c.enter(ch)
			if ch.Data != "em" && ch.Data != "strong" {
				c.report(StructuralViolation, ch, ch.Data, "only <em> and <strong> are allowed in criteria text")
				continue
			}
			if len(ch.Attr) > 0 {
				c.report(StructuralViolation, ch, card.AttrName(ch.Attr[0]), "attributes not allowed on <%s>", ch.Data)
			}
			c.visitRichText(ch)
		}
	}
}

// firstSymbol returns the first emoji or private use character. Latin-1
// symbols such as the degree sign are ordinary text.
func firstSymbol(s string) (rune, bool) {
	for _, r := range s {
		if r == unicode.ReplacementChar || unicode.Is(unicode.Co, r) {
			return r, true
		}
		if r >= 0x2000 && unicode.Is(unicode.So, r) {
			return r, true
		}
	}
	return 0, false
}
