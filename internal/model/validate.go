package model

import (
	"fmt"
	"net/url"
)

// MaxInstructionLength bounds TaskInput.Instruction. Configurable budgets
// larger than this are rejected by callers before reaching Validate.
const MaxInstructionLength = 2000

// Validate checks a TaskInput against the invariants the rest of the
// system assumes hold: a non-empty instruction within budget, an absolute
// http(s) URL, and mutually exclusive planOnly/executionOnly flags.
func (t TaskInput) Validate() error {
	if t.Instruction == "" {
		return NewValidationError("instruction must not be empty")
	}
	if len(t.Instruction) > MaxInstructionLength {
		return NewValidationError(fmt.Sprintf("instruction exceeds maximum length of %d characters", MaxInstructionLength))
	}

	u, err := url.Parse(t.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError(fmt.Sprintf("url must be an absolute http(s) URL, got %q", t.URL))
	}

	if t.Options != nil && t.Options.PlanOnly && t.Options.ExecutionOnly {
		return NewValidationError("planOnly and executionOnly are mutually exclusive")
	}

	return nil
}
