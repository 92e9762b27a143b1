package detector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
)

const (
	paymentThreshold      = 0.6
	confirmationThreshold = 0.7
	stepThreshold         = 0.4
)

// stepOrder breaks ties between equally scored step types
var stepOrder = []model.StepType{
	model.StepEnquiryForm,
	model.StepDetailsForm,
	model.StepReview,
	model.StepAddOn,
	model.StepDateTime,
	model.StepGroupSize,
	model.StepDate,
	model.StepTime,
	model.StepProduct,
}

var personalFields = rules.Ruleset{
	rules.Regexp("personal", 0, `(?i)(first.?name|last.?name|full.?name|surname|e-?mail|phone|mobile|tel\b|postcode|zip)`),
}

// ClassifyStep decides what kind of booking step the page shows.
// Payment wins whenever card fields or a payment processor form are
// present, so callers can stop before interacting with it.
func ClassifyStep(doc *goquery.Document, pageURL string) model.StepType {
	st, _ := classify(doc, pageURL)
	return st
}

// StepScores exposes the per-type scores behind ClassifyStep
func StepScores(doc *goquery.Document, pageURL string) map[model.StepType]float64 {
	_, scores := classify(doc, pageURL)
	return scores
}

func classify(doc *goquery.Document, pageURL string) (model.StepType, map[model.StepType]float64) {
	body := dom.BodyText(doc)
	scores := map[model.StepType]float64{}

	scores[model.StepPayment] = paymentScore(doc, pageURL)
	if scores[model.StepPayment] >= paymentThreshold {
		return model.StepPayment, scores
	}

	if r, ok := rules.ConfirmationPage.Best(body); ok {
		scores[model.StepConfirmation] = r.Weight
		if r.Weight >= confirmationThreshold {
			return model.StepConfirmation, scores
		}
	}

	fields := extract.FormFields(doc)
	textareas, personal := 0, 0
	for _, f := range fields {
		if f.Type == "textarea" {
			textareas++
		}
		if personalFields.Any(f.Name + " " + f.Label) {
			personal++
		}
	}
	dates, times := extract.Dates(doc), extract.Times(doc)
	products := extract.Products(doc)
	steppers := extract.GroupSize(doc)
	addons := extract.AddOns(doc)
	hasPrices := extract.Pricing(doc) != nil

	var sc float64
	if r, ok := rules.EnquiryForm.Best(body); ok {
		sc += r.Weight
	}
	if textareas > 0 {
		sc += 0.3
	}
	if personal > 0 && len(dates) == 0 && len(products) == 0 {
		sc += 0.1
	}
	if hasPrices || len(products) > 0 {
		sc -= 0.3
	}
	scores[model.StepEnquiryForm] = sc

	sc = 0
	if r, ok := rules.DetailsForm.Best(body); ok {
		sc += r.Weight
	}
	if personal >= 2 {
		sc += 0.4
	}
	if textareas > 0 && personal < 2 {
		sc -= 0.2
	}
	scores[model.StepDetailsForm] = sc

	sc = 0
	if r, ok := rules.ReviewPage.Best(body); ok {
		sc += r.Weight
	}
	if p := extract.Pricing(doc); p != nil && p.Total != nil {
		sc += 0.2
	}
	scores[model.StepReview] = sc

	sc = 0
	if rules.AddOnPage.Any(body) {
		sc += 0.5
	}
	if len(addons) >= 2 {
		sc += 0.3
	}
	scores[model.StepAddOn] = sc

	sc = 0
	if rules.ProductPage.Any(body) {
		sc += 0.4
	}
	if len(products) >= 2 {
		sc += 0.4
	}
	scores[model.StepProduct] = sc

	dateScore := 0.0
	if len(dates) > 0 || extract.HasCalendar(doc) {
		dateScore += 0.5
	}
	if rules.DatePage.Any(body) {
		dateScore += 0.3
	}
	scores[model.StepDate] = dateScore

	timeScore := 0.0
	if len(times) > 0 {
		timeScore += 0.5
	}
	if rules.TimePage.Any(body) {
		timeScore += 0.3
	}
	scores[model.StepTime] = timeScore
	if dateScore >= 0.5 && timeScore >= 0.5 {
		scores[model.StepDateTime] = max(dateScore, timeScore) + 0.1
	}

	sc = 0
	if steppers != nil {
		sc += 0.5
	}
	if rules.GroupSizePage.Any(body) {
		sc += 0.3
	}
	scores[model.StepGroupSize] = sc

	best, bestScore := model.StepUnknown, stepThreshold-0.0001
	for _, st := range stepOrder {
		if scores[st] > bestScore {
			best, bestScore = st, scores[st]
		}
	}
	return best, scores
}

// paymentScore weighs card inputs, processor frames and payment headings
func paymentScore(doc *goquery.Document, pageURL string) float64 {
	var sc rules.Score
	var fields []string
	dom.Each(doc.Find("input, iframe[name], iframe[title]"), func(in *goquery.Selection) {
		if !dom.Visible(in) {
			return
		}
		for _, a := range []string{"name", "id", "autocomplete", "placeholder", "aria-label", "title"} {
			if v, ok := in.Attr(a); ok {
				fields = append(fields, v)
			}
		}
	})
	sc.AddBest("payment", rules.PaymentFields, strings.Join(fields, " "))

	sources := []string{pageURL}
	dom.Each(doc.Find("iframe[src], form[action]"), func(s *goquery.Selection) {
		src, _ := s.Attr("src")
		action, _ := s.Attr("action")
		sources = append(sources, src, action)
	})
	sc.AddBest("payment", rules.PaymentProcessors, strings.Join(sources, " "))

	heading := dom.Title(doc)
	dom.Each(doc.Find("h1, h2, legend"), func(h *goquery.Selection) {
		heading += " " + h.Text()
	})
	sc.AddBest("payment", rules.PaymentHeadings, heading)
	return sc.Value
}
