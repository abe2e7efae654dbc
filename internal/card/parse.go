package card

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseError reports a card that is not well formed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Document is a parsed card.
type Document struct {
	Root *html.Node // the document node
	HTML *html.Node
	Head *html.Node
	Body *html.Node
}

// voidElements never have content nor an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Parse checks that data is a well-formed card and builds its tree.
func Parse(data []byte) (*Document, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("parse html: %v", err)}
	}

	doc := &Document{Root: root}
	doc.HTML = FirstChildElement(root, "html")
	if doc.HTML != nil {
		doc.Head = FirstChildElement(doc.HTML, "head")
		doc.Body = FirstChildElement(doc.HTML, "body")
	}
	if doc.HTML == nil || doc.Body == nil {
		return nil, &ParseError{Msg: "document has no <html> or <body>"}
	}
	return doc, nil
}

// ParseFile reads and parses a card file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card: %w", err)
	}
	return Parse(data)
}

// checkWellFormed walks the token stream and requires explicitly balanced tags.
// html.Parse alone never fails: it repairs whatever it is given.
func checkWellFormed(data []byte) error {
	z := html.NewTokenizer(bytes.NewReader(data))
	var stack []string
	seen := make(map[string]bool)
	line := 1

	inForeign := func() bool {
		for _, name := range stack {
			if name == "svg" || name == "math" {
				return true
			}
		}
		return false
	}

	for {
		tt := z.Next()
		tokenLine := line
		raw := z.Raw()
		line += bytes.Count(raw, []byte{'\n'})

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				if len(stack) > 0 {
					return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("unclosed <%s> at end of document", stack[len(stack)-1])}
				}
				if !seen["html"] || !seen["body"] {
					return &ParseError{Msg: "document must contain explicit <html> and <body> elements"}
				}
				return nil
			}
			return &ParseError{Line: tokenLine, Msg: z.Err().Error()}

		case html.StartTagToken, html.SelfClosingTagToken:
			nameBytes, hasAttr := z.TagName()
			name := string(nameBytes)
			if err := checkAttributes(z, name, hasAttr, tokenLine); err != nil {
				return err
			}
			if tt == html.SelfClosingTagToken && !voidElements[name] && !inForeign() && name != "svg" {
				return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("<%s/> is not a void element", name)}
			}
			if (name == "html" || name == "body" || name == "head") && seen[name] {
				return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("duplicate <%s>", name)}
			}
			seen[name] = true
			if tt == html.StartTagToken && !voidElements[name] {
				// <title> and <style> hold markup, not raw text, inside SVG.
				if inForeign() {
					z.NextIsNotRawText()
				}
				stack = append(stack, name)
			}

		case html.EndTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			if voidElements[name] {
				return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("end tag for void element </%s>", name)}
			}
			if len(stack) == 0 {
				return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("unexpected </%s>", name)}
			}
			if top := stack[len(stack)-1]; top != name {
				return &ParseError{Line: tokenLine, Msg: fmt.Sprintf("unexpected </%s>, expected </%s>", name, top)}
			}
			stack = stack[:len(stack)-1]

		case html.TextToken:
			if len(stack) == 0 && strings.TrimSpace(string(raw)) != "" {
				return &ParseError{Line: tokenLine, Msg: "text outside of <html>"}
			}
		}
	}
}

func checkAttributes(z *html.Tokenizer, tag string, hasAttr bool, line int) error {
	if !hasAttr {
		return nil
	}
	seen := make(map[string]bool)
	for {
		key, _, more := z.TagAttr()
		k := string(key)
		if seen[k] {
			return &ParseError{Line: line, Msg: fmt.Sprintf("duplicate attribute %q on <%s>", k, tag)}
		}
		seen[k] = true
		if !more {
			return nil
		}
	}
}

// Identifiers returns the taxon and instrument the card claims to describe.
func (d *Document) Identifiers() (taxoID int64, instrumentID string, err error) {
	rawTaxo, ok := Attr(d.Body, AttrTaxoID)
	if !ok {
		return 0, "", fmt.Errorf("<body> has no %s", AttrTaxoID)
	}
	taxoID, err = strconv.ParseInt(strings.TrimSpace(rawTaxo), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%s %q is not an integer", AttrTaxoID, rawTaxo)
	}
	instrumentID, ok = Attr(d.Body, AttrInstrumentID)
	if !ok || instrumentID == "" {
		return 0, "", fmt.Errorf("<body> has no %s", AttrInstrumentID)
	}
	return taxoID, instrumentID, nil
}
