package model

import "testing"

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{"navigate requires url", Step{ID: "1", Type: StepNavigate}, true},
		{"valid navigate", Step{ID: "1", Type: StepNavigate, URL: "https://example.com"}, false},
		{"click requires selector", Step{ID: "1", Type: StepClick}, true},
		{"valid click", Step{ID: "1", Type: StepClick, Selector: ".btn"}, false},
		{"wait requires positive ms", Step{ID: "1", Type: StepWait, WaitMs: 0}, true},
		{"valid wait", Step{ID: "1", Type: StepWait, WaitMs: 500}, false},
		{"valid reload has no requirements", Step{ID: "1", Type: StepReload}, false},
		{"unknown type rejected", Step{ID: "1", Type: "not-a-real-step"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveRetriesDefaultsToThree(t *testing.T) {
	s := Step{}
	if got := s.EffectiveRetries(); got != 3 {
		t.Errorf("EffectiveRetries() = %d, want 3", got)
	}
	s.Retries = 5
	if got := s.EffectiveRetries(); got != 5 {
		t.Errorf("EffectiveRetries() = %d, want 5", got)
	}
}
