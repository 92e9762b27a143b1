package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

var skippedInputTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "image": true, "reset": true,
}

// FormFields lists the visible inputs of a step. Radio buttons sharing a
// name collapse into one field with options.
func FormFields(doc *goquery.Document) []model.FormField {
	var out []model.FormField
	radios := map[string]int{}

	dom.Each(doc.Find("input, select, textarea"), func(in *goquery.Selection) {
		tag := dom.Tag(in)
		typ := strings.ToLower(attr(in, "type"))
		if tag == "input" && typ == "" {
			typ = "text"
		}
		if tag != "input" {
			typ = tag
		}
		if skippedInputTypes[typ] || !dom.Visible(in) {
			return
		}

		name := attr(in, "name")
		if name == "" {
			name = attr(in, "id")
		}
		label := fieldLabel(doc, in)
		_, required := in.Attr("required")
		required = required || attr(in, "aria-required") == "true" || strings.HasSuffix(label, "*")

		if typ == "radio" && name != "" {
			if i, ok := radios[name]; ok {
				out[i].Options = append(out[i].Options, label)
				out[i].Required = out[i].Required || required
				return
			}
			radios[name] = len(out)
		}

		f := model.FormField{
			Name:     name,
			Label:    strings.TrimSpace(strings.TrimSuffix(label, "*")),
			Type:     typ,
			Required: required,
		}
		f.Selector, _ = dom.Selector(doc, in)
		switch typ {
		case "select":
			dom.Each(in.Find("option"), func(o *goquery.Selection) {
				t := textutil.Clean(o.Text())
				if v, _ := o.Attr("value"); t != "" && v != "" {
					f.Options = append(f.Options, t)
				}
			})
		case "radio":
			f.Options = []string{label}
			f.Label = groupLabel(in, f.Label)
		}
		out = append(out, f)
	})
	return out
}

// fieldLabel resolves the label a user sees for a form control
func fieldLabel(doc *goquery.Document, in *goquery.Selection) string {
	if id := attr(in, "id"); id != "" {
		if l := doc.Find(fmt.Sprintf(`label[for="%s"]`, strings.ReplaceAll(id, `"`, `\"`))); l.Length() > 0 {
			return textutil.Clean(l.First().Text())
		}
	}
	if l := in.Closest("label"); l.Length() > 0 {
		if t := textutil.Clean(l.Text()); t != "" {
			return t
		}
	}
	for _, a := range []string{"aria-label", "placeholder", "title"} {
		if v := attr(in, a); v != "" {
			return textutil.Clean(v)
		}
	}
	if prev := in.PrevAll().Filter("label, span, strong").First(); prev.Length() > 0 {
		return textutil.Clean(prev.Text())
	}
	return ""
}

func groupLabel(in *goquery.Selection, fallback string) string {
	if legend := in.Closest("fieldset").Find("legend").First(); legend.Length() > 0 {
		return textutil.Clean(legend.Text())
	}
	return fallback
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}
