package httpapi

import "testing"

func TestParseTaskInputRaw(t *testing.T) {
	raw := []byte(`{"instruction":"extract price","url":"https://example.com"}`)
	in, err := parseTaskInput(raw)
	if err != nil {
		t.Fatalf("parseTaskInput: %v", err)
	}
	if in.Instruction != "extract price" || in.URL != "https://example.com" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestParseTaskInputEnvelope(t *testing.T) {
	raw := []byte(`{
		"body": "{\"instruction\":\"extract price\",\"url\":\"https://example.com\"}",
		"headers": {"Content-Type": "application/json"},
		"httpMethod": "POST"
	}`)
	in, err := parseTaskInput(raw)
	if err != nil {
		t.Fatalf("parseTaskInput: %v", err)
	}
	if in.Instruction != "extract price" || in.URL != "https://example.com" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestParseTaskInputRejectsMissingFields(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"url":"https://example.com"}`),
		[]byte(`{"instruction":"extract price"}`),
		[]byte(`{}`),
	}
	for _, raw := range cases {
		if _, err := parseTaskInput(raw); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestParseTaskInputRejectsInvalidJSON(t *testing.T) {
	if _, err := parseTaskInput([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}
