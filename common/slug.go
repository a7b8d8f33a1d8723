package common

import (
	"regexp"
	"strings"
)

var collapseSpace = regexp.MustCompile(`\s+`)

// NormalizeText lowercases, trims, and collapses internal whitespace to single
// spaces. Used to build a stable TaskSignature from free-form instruction text
// so that case and spacing differences don't fragment the plan cache.
func NormalizeText(s string) string {
	trimmed := strings.TrimSpace(s)
	collapsed := collapseSpace.ReplaceAllString(trimmed, " ")
	return strings.ToLower(collapsed)
}
