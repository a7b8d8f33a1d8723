package model

import "fmt"

// StepType tags which action a Step performs. Unknown types are rejected
// explicitly by Validate rather than silently skipped.
type StepType string

const (
	StepNavigate        StepType = "navigate"
	StepClick           StepType = "click"
	StepTyping          StepType = "type" // named StepTyping, not StepType, since "type" is a Go keyword
	StepSelect          StepType = "select"
	StepHover           StepType = "hover"
	StepKeyPress        StepType = "keyPress"
	StepScroll          StepType = "scroll"
	StepWait            StepType = "wait"
	StepWaitForSelector StepType = "waitForSelector"
	StepExtract         StepType = "extract"
	StepEvaluate        StepType = "evaluate"
	StepScreenshot      StepType = "screenshot"
	StepReload          StepType = "reload"
	StepGoBack          StepType = "goBack"
	StepGoForward       StepType = "goForward"
)

// WaitState selects what condition waitForSelector waits for.
type WaitState string

const (
	WaitStateAttached WaitState = "attached"
	WaitStateVisible  WaitState = "visible"
)

// ExtractKind selects what waitForSelector/extract pulls from a matched
// element.
type ExtractKind string

const (
	ExtractKindText      ExtractKind = "text"
	ExtractKindHTML      ExtractKind = "html"
	ExtractKindValue     ExtractKind = "value"
	ExtractKindAttribute ExtractKind = "attribute"
)

// WaitForSelectorOptions configures a waitForSelector step.
type WaitForSelectorOptions struct {
	TimeoutMs int       `json:"timeoutMs,omitempty"`
	State     WaitState `json:"state,omitempty"`
}

// ExtractOptions configures an extract step.
type ExtractOptions struct {
	Multiple  bool        `json:"multiple,omitempty"`
	Attribute string      `json:"attribute,omitempty"`
	Kind      ExtractKind `json:"kind,omitempty"`
}

// ScrollTarget is either an absolute {x,y} offset or a named direction.
type ScrollTarget struct {
	X         *int   `json:"x,omitempty"`
	Y         *int   `json:"y,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Step is one unit of browser action. It is a flat tagged union: Type
// selects which of the type-specific fields below are meaningful: the rest
// are left zero-valued and ignored.
type Step struct {
	ID          string   `json:"id"`
	Type        StepType `json:"type"`
	Description string   `json:"description"`
	Optional    bool     `json:"optional,omitempty"`
	Retries     int      `json:"retries,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	WaitAfterMs int      `json:"waitAfterMs,omitempty"`

	// navigate
	URL string `json:"url,omitempty"`

	// click, type, select, hover, waitForSelector, extract
	Selector string `json:"selector,omitempty"`

	// type, select
	Value string `json:"value,omitempty"`

	// keyPress
	Key string `json:"key,omitempty"`

	// scroll
	Scroll *ScrollTarget `json:"scroll,omitempty"`

	// wait
	WaitMs int `json:"waitMs,omitempty"`

	// waitForSelector
	WaitForSelector *WaitForSelectorOptions `json:"waitForSelectorOptions,omitempty"`

	// extract
	Extract *ExtractOptions `json:"extractOptions,omitempty"`

	// evaluate
	Script string `json:"script,omitempty"`

	// screenshot
	FullPage bool `json:"fullPage,omitempty"`
}

// EffectiveRetries returns Retries, defaulting to 3 when unset.
func (s Step) EffectiveRetries() int {
	if s.Retries == 0 {
		return 3
	}
	return s.Retries
}

// Validate rejects a step whose Type is unrecognized or whose
// type-specific required field is missing. This is the explicit "reject
// unknown types rather than silently ignoring them" branch.
func (s Step) Validate() error {
	switch s.Type {
	case StepNavigate:
		if s.URL == "" {
			return fmt.Errorf("step %s: navigate requires url", s.ID)
		}
	case StepClick, StepHover:
		if s.Selector == "" {
			return fmt.Errorf("step %s: %s requires selector", s.ID, s.Type)
		}
	case StepTyping, StepSelect:
		if s.Selector == "" {
			return fmt.Errorf("step %s: %s requires selector", s.ID, s.Type)
		}
	case StepKeyPress:
		if s.Key == "" {
			return fmt.Errorf("step %s: keyPress requires key", s.ID)
		}
	case StepScroll:
		// direction or x/y may be zero-valued legitimately; nothing to require
	case StepWait:
		if s.WaitMs <= 0 {
			return fmt.Errorf("step %s: wait requires a positive waitMs", s.ID)
		}
	case StepWaitForSelector, StepExtract:
		if s.Selector == "" {
			return fmt.Errorf("step %s: %s requires selector", s.ID, s.Type)
		}
	case StepEvaluate:
		if s.Script == "" {
			return fmt.Errorf("step %s: evaluate requires script", s.ID)
		}
	case StepScreenshot, StepReload, StepGoBack, StepGoForward:
		// no required fields
	default:
		return fmt.Errorf("step %s: unknown step type %q", s.ID, s.Type)
	}
	return nil
}
