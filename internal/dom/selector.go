package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector specificity, higher is more stable
const (
	RankPath  = 0
	RankClass = 1
	RankName  = 2
	RankData  = 3
	RankID    = 4
)

var cssIdent = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// stableDataAttrs are tried in order before any other data-* attribute
var stableDataAttrs = []string{"data-testid", "data-test", "data-qa", "data-cy", "data-id", "data-product-id", "data-package-id", "data-booking", "data-action"}

// Selector returns a CSS selector that uniquely locates sel in doc, and its
// specificity: id > data-* > name > class > structural path.
func Selector(doc *goquery.Document, sel *goquery.Selection) (string, int) {
	sel = sel.First()
	tag := Tag(sel)
	unique := func(s string) bool {
		return doc.Find(s).Length() == 1
	}

	if id, ok := sel.Attr("id"); ok && cssIdent.MatchString(id) && unique("#"+id) {
		return "#" + id, RankID
	}

	for _, key := range stableDataAttrs {
		if v, ok := sel.Attr(key); ok {
			s := fmt.Sprintf(`%s[%s="%s"]`, tag, key, escapeAttr(v))
			if unique(s) {
				return s, RankData
			}
		}
	}
	for _, a := range Attributes(sel) {
		if !strings.HasPrefix(a.Key, "data-") || a.Val == "" || len(a.Val) > 80 {
			continue
		}
		s := fmt.Sprintf(`%s[%s="%s"]`, tag, a.Key, escapeAttr(a.Val))
		if unique(s) {
			return s, RankData
		}
	}

	if name, ok := sel.Attr("name"); ok && name != "" {
		s := fmt.Sprintf(`%s[name="%s"]`, tag, escapeAttr(name))
		if unique(s) {
			return s, RankName
		}
	}

	if cls, ok := sel.Attr("class"); ok {
		var valid []string
		for _, c := range strings.Fields(cls) {
			if cssIdent.MatchString(c) {
				valid = append(valid, c)
			}
		}
		for n := 1; n <= len(valid) && n <= 3; n++ {
			s := tag + "." + strings.Join(valid[:n], ".")
			if unique(s) {
				return s, RankClass
			}
		}
	}

	if href, ok := sel.Attr("href"); ok && href != "" && tag == "a" {
		s := fmt.Sprintf(`a[href="%s"]`, escapeAttr(href))
		if unique(s) {
			return s, RankClass
		}
	}

	return structuralPath(doc, sel), RankPath
}

// structuralPath walks up to the nearest uniquely-identified ancestor
func structuralPath(doc *goquery.Document, sel *goquery.Selection) string {
	var segments []string
	cur := sel
	for cur.Length() > 0 {
		tag := Tag(cur)
		if tag == "html" {
			segments = append(segments, "html")
			break
		}
		if id, ok := cur.Attr("id"); ok && cssIdent.MatchString(id) && doc.Find("#"+id).Length() == 1 {
			segments = append(segments, "#"+id)
			break
		}
		if tag == "body" {
			segments = append(segments, "body")
			break
		}
		segments = append(segments, fmt.Sprintf("%s:nth-child(%d)", tag, cur.Index()+1))
		cur = cur.Parent()
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

func escapeAttr(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}
