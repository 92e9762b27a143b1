package model

import "time"

// BookingSystemDiscovery is the deep scrape of one booking widget
type BookingSystemDiscovery struct {
	URL        string            `json:"url"`
	Platform   string            `json:"platform"`
	Venue      VenueInfo         `json:"venue"`
	Categories []string          `json:"categories"`
	Packages   []BookablePackage `json:"packages"`
	ScrapedAt  time.Time         `json:"scrapedAt"`
	Errors     []string          `json:"errors"`
}

// VenueInfo identifies the business behind a booking widget
type VenueInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// BookablePackage is one product card and its detail view
type BookablePackage struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Description   string              `json:"description,omitempty"`
	Pricing       PackagePricing      `json:"pricing"`
	Guests        *GuestConfiguration `json:"guests,omitempty"`
	Inclusions    []PackageInclusion  `json:"inclusions,omitempty"`
	AddOns        []PackageAddOn      `json:"addOns,omitempty"`
	Restrictions  []string            `json:"restrictions,omitempty"`
	Duration      string              `json:"duration,omitempty"`
	AvailableDays []string            `json:"availableDays,omitempty"` // weekdays seen in date-gated scrapes
	DetailScraped bool                `json:"detailScraped"`
	Selector      string              `json:"-"`
}

// PackagePricing holds every price signal found for a package
type PackagePricing struct {
	BasePrice      *float64   `json:"basePrice,omitempty"`
	PerPersonPrice *float64   `json:"perPersonPrice,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	DayPricing     []DayPrice `json:"dayPricing,omitempty"`
	Notes          []string   `json:"notes,omitempty"` // unparsed price text kept verbatim
}

// DayPrice is a price band that applies to a set of weekdays
type DayPrice struct {
	Days      []string `json:"days"` // mon..sun
	Price     float64  `json:"price"`
	PerPerson bool     `json:"perPerson"`
}

// GuestConfiguration bounds the party size of a package
type GuestConfiguration struct {
	Min        int             `json:"min,omitempty"`
	Max        int             `json:"max,omitempty"`
	Categories []GuestCategory `json:"categories,omitempty"`
}

// PackageInclusion is one item of a package's "includes" list
type PackageInclusion struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// PackageAddOn is an optional extra listed on a package detail view
type PackageAddOn struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Category string   `json:"category"`
}
