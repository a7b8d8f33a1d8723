package change

import (
	"reflect"
	"sort"
	"testing"
)

func TestHasChangedFirstExecution(t *testing.T) {
	result := HasChanged(nil, map[string]any{"price": "10"})
	if !result.IsFirstExecution {
		t.Error("expected IsFirstExecution for nil prev")
	}
	if result.Changed {
		t.Error("first execution should not report Changed")
	}
}

func TestHasChangedNoDifference(t *testing.T) {
	sample := map[string]any{"price": "10", "title": "Coffee"}
	result := HasChanged(sample, map[string]any{"price": "10", "title": "Coffee"})
	if result.Changed {
		t.Errorf("expected no change, got %+v", result.ChangedFields)
	}
}

func TestHasChangedScalarMismatch(t *testing.T) {
	prev := map[string]any{"price": "10"}
	curr := map[string]any{"price": "12"}
	result := HasChanged(prev, curr)
	if !result.Changed || !contains(result.ChangedFields, "price") {
		t.Errorf("expected price to be flagged changed, got %+v", result.ChangedFields)
	}
}

func TestHasChangedNestedObjectRecurses(t *testing.T) {
	prev := map[string]any{"product": map[string]any{"price": "10", "stock": "5"}}
	curr := map[string]any{"product": map[string]any{"price": "10", "stock": "8"}}
	result := HasChanged(prev, curr)
	if !contains(result.ChangedFields, "product.stock") {
		t.Errorf("expected nested path product.stock, got %+v", result.ChangedFields)
	}
	if contains(result.ChangedFields, "product.price") {
		t.Errorf("did not expect product.price to change, got %+v", result.ChangedFields)
	}
}

func TestHasChangedArrayComparedByValue(t *testing.T) {
	prev := map[string]any{"tags": []any{"a", "b"}}
	curr := map[string]any{"tags": []any{"a", "c"}}
	result := HasChanged(prev, curr)
	if !contains(result.ChangedFields, "tags") {
		t.Errorf("expected tags array change, got %+v", result.ChangedFields)
	}
}

func TestHasChangedAddedAndRemovedKeys(t *testing.T) {
	prev := map[string]any{"a": "1"}
	curr := map[string]any{"b": "2"}
	result := HasChanged(prev, curr)
	sort.Strings(result.ChangedFields)
	if !reflect.DeepEqual(result.ChangedFields, []string{"a", "b"}) {
		t.Errorf("expected both added and removed keys flagged, got %+v", result.ChangedFields)
	}
}

func TestIsRestockWhenDateAdvances(t *testing.T) {
	prev := map[string]any{"roastingDate": "2026-01-01"}
	curr := map[string]any{"roastingDate": "2026-02-15"}
	result := HasChanged(prev, curr)
	if !result.IsRestock {
		t.Error("expected restock when roastingDate advances")
	}
}

func TestIsRestockFalseWhenDateGoesBackward(t *testing.T) {
	prev := map[string]any{"roastingDate": "2026-02-15"}
	curr := map[string]any{"roastingDate": "2026-01-01"}
	result := HasChanged(prev, curr)
	if result.IsRestock {
		t.Error("did not expect restock when roastingDate goes backward")
	}
}

func TestIsRestockFalseWhenOtherFieldChanges(t *testing.T) {
	prev := map[string]any{"roastingDate": "2026-01-01", "price": "10"}
	curr := map[string]any{"roastingDate": "2026-01-01", "price": "12"}
	result := HasChanged(prev, curr)
	if result.IsRestock {
		t.Error("did not expect restock when roastingDate is unchanged")
	}
}

func TestGetChangeDetailsClassifiesAddedRemovedModified(t *testing.T) {
	prev := map[string]any{"price": "10", "old": "x"}
	curr := map[string]any{"price": "12", "new": "y"}
	fields := []string{"price", "old", "new"}

	details := GetChangeDetails(prev, curr, fields)

	if details["price"].Before != "10" || details["price"].After != "12" {
		t.Errorf("price detail = %+v, want modified 10->12", details["price"])
	}
	if details["old"].Before != "x" || details["old"].After != nil {
		t.Errorf("old detail = %+v, want removed", details["old"])
	}
	if details["new"].Before != nil || details["new"].After != "y" {
		t.Errorf("new detail = %+v, want added", details["new"])
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
