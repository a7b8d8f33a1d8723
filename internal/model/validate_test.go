package model

import "testing"

func TestTaskInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   TaskInput
		wantErr bool
	}{
		{"valid", TaskInput{Instruction: "check price", URL: "https://example.com"}, false},
		{"empty instruction", TaskInput{Instruction: "", URL: "https://example.com"}, true},
		{"non-http url", TaskInput{Instruction: "x", URL: "ftp://example.com"}, true},
		{"relative url", TaskInput{Instruction: "x", URL: "/foo"}, true},
		{
			"mutually exclusive planOnly/executionOnly",
			TaskInput{Instruction: "x", URL: "https://example.com", Options: &TaskOptions{PlanOnly: true, ExecutionOnly: true}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskInputModeDefaultsToInteractive(t *testing.T) {
	in := TaskInput{Instruction: "x", URL: "https://example.com"}
	if in.Mode() != ExecutionModeInteractive {
		t.Errorf("Mode() = %v, want interactive", in.Mode())
	}
}
