package model

import "testing"

func TestTaskSignatureStability(t *testing.T) {
	a, err := TaskSignature("Search for 'TypeScript tutorial' on Google", "https://www.Google.com/search/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := TaskSignature("  search for 'typescript tutorial' on google  ", "https://www.google.com/search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("signatures differ under case/whitespace normalization: %q != %q", a, b)
	}
}

func TestTaskSignatureDistinguishesDifferentURLs(t *testing.T) {
	a, _ := TaskSignature("check price", "https://example.com/a")
	b, _ := TaskSignature("check price", "https://example.com/b")
	if a == b {
		t.Errorf("expected different signatures for different paths, got %q for both", a)
	}
}

func TestTaskSignatureRejectsInvalidURL(t *testing.T) {
	if _, err := TaskSignature("check price", "://not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	sig := "check price|https://example.com/a"
	if CacheKey(sig) != CacheKey(sig) {
		t.Error("CacheKey is not deterministic for the same signature")
	}
}
