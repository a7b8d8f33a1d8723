// Package change diffs successive extraction samples and classifies the
// result, including the restock heuristic on roastingDate.
package change

import (
	"fmt"
	"sort"

	"pagewatch.dev/core/internal/model"
)

// Result is hasChanged's outcome for one pair of samples.
type Result struct {
	Changed         bool
	ChangedFields   []string
	IsRestock       bool
	IsFirstExecution bool
}

// RestockField is the extracted-data key the restock heuristic keys off.
const RestockField = "roastingDate"

// HasChanged performs a recursive structural diff between two successive
// extractions. A scalar mismatch adds the dotted field path; nested
// objects recurse; arrays are compared by value (index-by-index plus a
// length check). prev may be nil, in which case this is the task's first
// observation.
func HasChanged(prev, curr map[string]any) Result {
	if prev == nil {
		return Result{IsFirstExecution: true}
	}

	var fields []string
	diffValue("", any(prev), any(curr), &fields)
	sort.Strings(fields)

	return Result{
		Changed:       len(fields) > 0,
		ChangedFields: fields,
		IsRestock:     isRestock(fields, prev, curr),
	}
}

// GetChangeDetails classifies each changed field as added, removed, or
// modified, and records before/after values for it.
func GetChangeDetails(prev, curr map[string]any, changedFields []string) map[string]model.ChangeDetail {
	details := make(map[string]model.ChangeDetail, len(changedFields))
	for _, field := range changedFields {
		before, beforeOK := lookupPath(prev, field)
		after, afterOK := lookupPath(curr, field)
		details[field] = model.ChangeDetail{Before: classifyValue(before, beforeOK), After: classifyValue(after, afterOK)}
	}
	return details
}

func classifyValue(v any, present bool) any {
	if !present {
		return nil
	}
	return v
}

// isRestock holds when roastingDate changed and the new date is
// lexicographically later than the previous one, which is valid ordering
// for YYYY-MM-DD strings.
func isRestock(changedFields []string, prev, curr map[string]any) bool {
	found := false
	for _, f := range changedFields {
		if f == RestockField {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	prevDate, ok1 := prev[RestockField].(string)
	currDate, ok2 := curr[RestockField].(string)
	return ok1 && ok2 && prevDate < currDate
}

func diffValue(path string, prev, curr any, fields *[]string) {
	prevMap, prevIsMap := prev.(map[string]any)
	currMap, currIsMap := curr.(map[string]any)
	if prevIsMap && currIsMap {
		diffMaps(path, prevMap, currMap, fields)
		return
	}

	prevSlice, prevIsSlice := prev.([]any)
	currSlice, currIsSlice := curr.([]any)
	if prevIsSlice && currIsSlice {
		diffSlices(path, prevSlice, currSlice, fields)
		return
	}

	if !valuesEqual(prev, curr) {
		*fields = append(*fields, pathOrRoot(path))
	}
}

func diffMaps(path string, prev, curr map[string]any, fields *[]string) {
	keys := make(map[string]struct{}, len(prev)+len(curr))
	for k := range prev {
		keys[k] = struct{}{}
	}
	for k := range curr {
		keys[k] = struct{}{}
	}
	for k := range keys {
		childPath := joinPath(path, k)
		prevVal, prevOK := prev[k]
		currVal, currOK := curr[k]
		switch {
		case prevOK && currOK:
			diffValue(childPath, prevVal, currVal, fields)
		case prevOK != currOK:
			*fields = append(*fields, childPath)
		}
	}
}

func diffSlices(path string, prev, curr []any, fields *[]string) {
	if len(prev) != len(curr) {
		*fields = append(*fields, pathOrRoot(path))
		return
	}
	for i := range prev {
		if !valuesEqual(prev[i], curr[i]) {
			*fields = append(*fields, pathOrRoot(path))
			return
		}
	}
}

func valuesEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func lookupPath(data map[string]any, path string) (any, bool) {
	if path == "(root)" {
		return data, true
	}
	var cur any = data
	for _, part := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}
