package agent

import (
	"testing"

	"pagewatch.dev/core/internal/model"
)

func extractStep(text string, instruction string) model.InteractiveStep {
	return model.InteractiveStep{
		Action: model.Step{Type: model.StepExtract},
		ExecutionResult: model.StepOutcome{
			Success: true,
			Result:  map[string]any{"value": text},
		},
	}
}

func TestMergeParsedDataRoastingDateWithLabel(t *testing.T) {
	out := &Output{}
	step := extractStep("Rostningsdatum 2026-03-04 for this batch", "find the roast date")
	mergeParsedData(out, "find the roast date", step)

	if out.ExtractedData["roastingDate"] != "2026-03-04" {
		t.Errorf("roastingDate = %v, want 2026-03-04", out.ExtractedData["roastingDate"])
	}
}

func TestMergeParsedDataRoastingDateFallsBackToAnyDate(t *testing.T) {
	out := &Output{}
	step := extractStep("Packed 2026-01-10, best before 2026-06-01", "roast date")
	mergeParsedData(out, "roast date", step)

	if out.ExtractedData["roastingDate"] != "2026-06-01" {
		t.Errorf("roastingDate = %v, want the latest date 2026-06-01", out.ExtractedData["roastingDate"])
	}
	dates, ok := out.ExtractedData["allDatesFound"].([]string)
	if !ok || len(dates) != 2 {
		t.Errorf("allDatesFound = %v, want 2 dates", out.ExtractedData["allDatesFound"])
	}
}

func TestMergeParsedDataPriceSEK(t *testing.T) {
	out := &Output{}
	step := extractStep("Price: 129 kr per bag", "check the price")
	mergeParsedData(out, "check the price", step)

	if out.ExtractedData["price"] != "129" || out.ExtractedData["currency"] != "SEK" {
		t.Errorf("extracted = %+v, want price=129 currency=SEK", out.ExtractedData)
	}
}

func TestMergeParsedDataPriceUSD(t *testing.T) {
	out := &Output{}
	step := extractStep("Total cost: $12.50", "what is the cost")
	mergeParsedData(out, "what is the cost", step)

	if out.ExtractedData["price"] != "12.50" || out.ExtractedData["currency"] != "USD" {
		t.Errorf("extracted = %+v, want price=12.50 currency=USD", out.ExtractedData)
	}
}

func TestMergeParsedDataTitleFromTitleTag(t *testing.T) {
	out := &Output{}
	step := extractStep("<html><head><title> Single Origin Roast </title></head></html>", "read the title")
	mergeParsedData(out, "read the title", step)

	if out.ExtractedData["title"] != "Single Origin Roast" {
		t.Errorf("title = %v, want trimmed title", out.ExtractedData["title"])
	}
}

func TestMergeParsedDataSkipsFailedStep(t *testing.T) {
	out := &Output{}
	step := model.InteractiveStep{
		Action:          model.Step{Type: model.StepExtract},
		ExecutionResult: model.StepOutcome{Success: false},
	}
	mergeParsedData(out, "check the price", step)

	if out.ExtractedData != nil {
		t.Errorf("expected no extracted data from a failed step, got %+v", out.ExtractedData)
	}
}

func TestMergeParsedDataSkipsNonExtractStep(t *testing.T) {
	out := &Output{}
	step := model.InteractiveStep{
		Action:          model.Step{Type: model.StepClick},
		ExecutionResult: model.StepOutcome{Success: true, Result: map[string]any{"value": "129 kr"}},
	}
	mergeParsedData(out, "check the price", step)

	if out.ExtractedData != nil {
		t.Errorf("expected no extracted data from a non-extract step, got %+v", out.ExtractedData)
	}
}
