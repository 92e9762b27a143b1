// Package dom works on HTML snapshots of a browser session: selector
// generation, visibility and label text.
package dom

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/textutil"
)

// Parse builds a document from raw HTML
func Parse(raw string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(raw))
}

// Snapshot serializes the session's current DOM and parses it
func Snapshot(ctx context.Context, s browser.Session) (*goquery.Document, error) {
	raw, err := s.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}

// Title returns the document title, falling back to the first h1
func Title(doc *goquery.Document) string {
	if t := textutil.Clean(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return textutil.Clean(doc.Find("h1").First().Text())
}

// BodyText returns visible-ish body text with scripts and styles removed
func BodyText(doc *goquery.Document) string {
	return Text(doc.Find("body"))
}

// inline elements flow into their neighbours without a break
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "i": true, "kbd": true,
	"label": true, "mark": true, "q": true, "s": true, "samp": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true, "u": true,
	"var": true, "font": true,
}

var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// Text returns the text of every node in sel. Block boundaries become
// spaces, so minified markup such as <h1>Booked</h1><p>Ref 1</p> reads
// "Booked Ref 1" rather than "BookedRef 1".
func Text(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
		}
		brk := n.Type == html.ElementNode && !inline[n.Data]
		if brk {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if brk {
			b.WriteByte(' ')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
		b.WriteByte(' ')
	}
	return textutil.Clean(b.String())
}

// Tag returns the lowercased tag name of the first node
func Tag(sel *goquery.Selection) string {
	return strings.ToLower(goquery.NodeName(sel))
}

// Label returns what a user would read on a control
func Label(sel *goquery.Selection) string {
	if t := textutil.Clean(sel.Text()); t != "" {
		return t
	}
	for _, attr := range []string{"value", "aria-label", "title", "alt", "placeholder"} {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return textutil.Clean(v)
		}
	}
	if alt, ok := sel.Find("img[alt]").First().Attr("alt"); ok {
		return textutil.Clean(alt)
	}
	return ""
}

var hiddenStyle = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden)`)
var hiddenClass = regexp.MustCompile(`(?i)(^|\s)(hidden|d-none|sr-only|visually-hidden|is-hidden)(\s|$)`)

// Visible approximates CSS visibility from attributes on the node and its
// ancestors. Computed styles are not available in a snapshot.
func Visible(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	if t, _ := sel.Attr("type"); strings.EqualFold(t, "hidden") {
		return false
	}
	for cur := sel.First(); cur.Length() > 0; cur = cur.Parent() {
		if _, ok := cur.Attr("hidden"); ok {
			return false
		}
		if v, _ := cur.Attr("aria-hidden"); v == "true" {
			return false
		}
		if st, ok := cur.Attr("style"); ok && hiddenStyle.MatchString(st) {
			return false
		}
		if cls, ok := cur.Attr("class"); ok && hiddenClass.MatchString(cls) {
			return false
		}
		switch Tag(cur) {
		case "template", "noscript", "head":
			return false
		}
	}
	return true
}

var disabledClass = regexp.MustCompile(`(?i)(^|[\s_-])(disabled|unavailable|sold-?out|inactive|booked|is-full|past)($|[\s_-])`)

// Enabled reports whether a control accepts interaction
func Enabled(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("disabled"); ok {
		return false
	}
	if v, _ := sel.Attr("aria-disabled"); v == "true" {
		return false
	}
	if cls, _ := sel.Attr("class"); disabledClass.MatchString(cls) {
		return false
	}
	return true
}

// Attributes returns every attribute of the first node
func Attributes(sel *goquery.Selection) []html.Attribute {
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0].Attr
}

// DataAttributes returns the data-* attributes of the first node keyed by
// their full attribute name
func DataAttributes(sel *goquery.Selection) map[string]string {
	out := map[string]string{}
	for _, a := range Attributes(sel) {
		if strings.HasPrefix(a.Key, "data-") {
			out[a.Key] = a.Val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AncestorSignature joins id and class of up to levels ancestors
func AncestorSignature(sel *goquery.Selection, levels int) string {
	var parts []string
	cur := sel.Parent()
	for i := 0; i < levels && cur.Length() > 0; i++ {
		if id, ok := cur.Attr("id"); ok {
			parts = append(parts, id)
		}
		if cls, ok := cur.Attr("class"); ok {
			parts = append(parts, cls)
		}
		for _, a := range Attributes(cur) {
			if strings.HasPrefix(a.Key, "data-") {
				parts = append(parts, a.Key)
			}
		}
		cur = cur.Parent()
	}
	return strings.Join(parts, " ")
}

// Each calls fn for every node in sel as its own selection
func Each(sel *goquery.Selection, fn func(*goquery.Selection)) {
	sel.Each(func(_ int, s *goquery.Selection) {
		fn(s)
	})
}

// Contains reports whether outer is an ancestor of inner
func Contains(outer, inner *goquery.Selection) bool {
	if outer.Length() == 0 || inner.Length() == 0 {
		return false
	}
	target := outer.Nodes[0]
	for n := inner.Nodes[0].Parent; n != nil; n = n.Parent {
		if n == target {
			return true
		}
	}
	return false
}
