package model

import "time"

// StepType classifies one state of a booking flow
type StepType string

const (
	StepGroupSize    StepType = "group_size_selection"
	StepDate         StepType = "date_selection"
	StepTime         StepType = "time_selection"
	StepDateTime     StepType = "datetime_selection"
	StepProduct      StepType = "product_selection"
	StepAddOn        StepType = "addon_selection"
	StepDetailsForm  StepType = "details_form"
	StepEnquiryForm  StepType = "enquiry_form"
	StepReview       StepType = "review"
	StepPayment      StepType = "payment"
	StepConfirmation StepType = "confirmation"
	StepUnknown      StepType = "unknown"
)

// Flow types assigned to a finished variation
const (
	FlowStandard    = "standard"
	FlowHighRevenue = "high_revenue"
	FlowEnquiry     = "enquiry"
	FlowUnknown     = "unknown"
)

// Group size modes a variation is explored with
const (
	GroupSizeMin = "min"
	GroupSizeMax = "max"
)

// Termination reasons; the set is closed
const (
	ReasonPaymentReached = "payment_page_reached"
	ReasonPaymentBlocked = "payment_action_blocked"
	ReasonConfirmation   = "confirmation_reached"
	ReasonEnquiryForm    = "enquiry_form_reached"
	ReasonNoProgression  = "no_progression_action"
	ReasonActionFailed   = "action_failed"
	ReasonMaxSteps       = "max_steps_reached"
	ReasonCycleDetected  = "cycle_detected"
	ReasonTimeout        = "timeout"
	ReasonEntryFailed    = "entry_failed"
)

// BookingFlow aggregates every way of reaching one booking destination
type BookingFlow struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Destination     string           `json:"destination"`
	EntryPoints     []BookingTrigger `json:"entryPoints"`
	Flows           []FlowVariation  `json:"flows"`
	GroupSizeConfig *GroupSizeConfig `json:"groupSizeConfig,omitempty"`
	DiscoveredAt    time.Time        `json:"discoveredAt"`
}

// FlowVariation is one traversal attempt for a group size / path combination
type FlowVariation struct {
	FlowType          string     `json:"flowType"`
	GroupSizeMode     string     `json:"groupSizeMode"`
	GroupSize         int        `json:"groupSize,omitempty"`
	Steps             []FlowStep `json:"steps"`
	Completed         bool       `json:"completed"`
	TerminationReason string     `json:"terminationReason"`
	ExplorationTimeMs int64      `json:"explorationTimeMs"`
	StoryboardPath    string     `json:"storyboardPath,omitempty"`
	Errors            []string   `json:"errors,omitempty"` // failures outside any recorded step
}

// FlowStep is one page or widget state visited during a variation
type FlowStep struct {
	StepOrder        int              `json:"stepOrder"`
	URL              string           `json:"url"`
	Description      string           `json:"description"`
	StepType         StepType         `json:"stepType"`
	AvailableOptions AvailableOptions `json:"availableOptions"`
	AddOns           []AddOn          `json:"addOns"`
	FormFields       []FormField      `json:"formFields"`
	ScreenshotPath   string           `json:"screenshotPath,omitempty"`
	Action           string           `json:"action,omitempty"` // what the explorer did to leave the step
	Errors           []string         `json:"errors"`
}

// AvailableOptions is what a step offered at the time it was visited
type AvailableOptions struct {
	Dates     []DateOption     `json:"dates,omitempty"`
	Times     []TimeOption     `json:"times,omitempty"`
	Products  []ProductOption  `json:"products,omitempty"`
	Pricing   *Pricing         `json:"pricing,omitempty"`
	GroupSize *GroupSizeConfig `json:"groupSize,omitempty"`
}

// GuestCategory is one bucket of a guest selector (adults, children...)
type GuestCategory struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max,omitempty"`
}

// GroupSizeConfig describes how a widget lets the user pick a party size
type GroupSizeConfig struct {
	Min             int             `json:"min"`
	Max             int             `json:"max,omitempty"`
	Default         int             `json:"default,omitempty"`
	DivergencePoint int             `json:"divergencePoint,omitempty"` // 0 when unknown
	Control         string          `json:"control"`                   // stepper, input, select
	Categories      []GuestCategory `json:"categories,omitempty"`
}

// HasDivergence reports whether a large-group branch is known
func (g *GroupSizeConfig) HasDivergence() bool {
	return g != nil && g.DivergencePoint > 0
}

// DateOption is a selectable calendar day
type DateOption struct {
	Label     string `json:"label"`
	Value     string `json:"value,omitempty"`
	Selector  string `json:"selector"`
	Available bool   `json:"available"`
}

// TimeOption is a selectable time slot
type TimeOption struct {
	Label     string `json:"label"`
	Selector  string `json:"selector"`
	Available bool   `json:"available"`
}

// ProductOption is a selectable product/package card inside a flow step
type ProductOption struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Selector string   `json:"selector"`
}

// AddOn is an optional extra offered during a flow
type AddOn struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price,omitempty"`
	Category    string   `json:"category"`
	PreSelected bool     `json:"preSelected"`
}

// FormField is one input of a details or enquiry form
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label,omitempty"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Selector string   `json:"-"`
}

// Pricing is the price summary visible on a step
type Pricing struct {
	Base      *float64 `json:"base,omitempty"`
	PerPerson *float64 `json:"perPerson,omitempty"`
	Total     *float64 `json:"total,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}
