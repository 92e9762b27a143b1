package model

import "time"

// CrawlQueueItem is a pending URL in the crawler frontier
type CrawlQueueItem struct {
	URL       string `json:"url"`
	Depth     int    `json:"depth"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Priority  int    `json:"priority"` // lower is visited sooner
}

// CrawlResult is the record of one visited URL
type CrawlResult struct {
	URL             string           `json:"url"`
	Title           string           `json:"title"`
	Depth           int              `json:"depth"`
	Status          int              `json:"status,omitempty"`
	Language        string           `json:"language,omitempty"` // ISO 639-3
	InternalLinks   []string         `json:"internalLinks"`
	BookingTriggers []BookingTrigger `json:"bookingTriggers"`
	VisitedAt       time.Time        `json:"visitedAt"`
	Errors          []string         `json:"errors"`
}

// Trigger types reported by the detector
const (
	TriggerButton       = "button"
	TriggerLink         = "link"
	TriggerExternalLink = "external_link"
	TriggerDataAttr     = "data_attribute"
	TriggerIframe       = "iframe"
)

// BookingTrigger is a clickable element suspected of starting a booking flow
type BookingTrigger struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Selector       string            `json:"selector"`
	TagName        string            `json:"tagName"`
	SourceURL      string            `json:"sourceUrl"`
	Href           string            `json:"href,omitempty"`
	Confidence     float64           `json:"confidence"`
	DataAttributes map[string]string `json:"dataAttributes,omitempty"`
	TriggerType    string            `json:"triggerType"`
}

// CrawlOutput is everything the crawler hands to the explorer
type CrawlOutput struct {
	Results  []CrawlResult    `json:"results"`
	Triggers []BookingTrigger `json:"triggers"`
}
