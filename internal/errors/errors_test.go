// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 42, "--samples"),
			expected: "invalid value 42 for flag --samples",
		},
		{
			name:        "ConfigError type assertion",
			err:         NewConfigError("test error"),
			expected:    "test error",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkTypeAs {
				var configErr ConfigError
				if !errors.As(tt.err, &configErr) {
					t.Error("expected error to be ConfigError type")
				}
			}
		})
	}
}

func TestMismatchError(t *testing.T) {
	t.Parallel()
	err := MismatchError{
		Circuit:  "CDKM2004.Add",
		Widths:   []int{8, 8},
		Inputs:   []*big.Int{big.NewInt(200), big.NewInt(100)},
		Expected: "44",
		Actual:   "45",
	}
	want := "CDKM2004.Add: mismatch at widths [8 8] inputs [200, 100]: expected 44, got 45"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	wrapped := fmt.Errorf("case 3: %w", err)
	var mismatch MismatchError
	if !errors.As(wrapped, &mismatch) {
		t.Fatal("errors.As should find MismatchError through fmt.Errorf wrapping")
	}
	if mismatch.Inputs[0].Int64() != 200 {
		t.Errorf("expected first input 200, got %s", mismatch.Inputs[0])
	}
}

func TestMismatchError_Distributions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  MismatchError
		want string
	}{
		{
			name: "distributions only",
			err: MismatchError{
				Circuit:       "Faulty.XorAdd",
				Widths:        []int{3, 3},
				Distributions: []string{"{1: 0.5, 3: 0.5}", "{1: 0.4, 2: 0.6}"},
				Expected:      "{2: 0.2}",
				Actual:        "{3: 0.2}",
			},
			want: "Faulty.XorAdd: mismatch at widths [3 3] inputs [{1: 0.5, 3: 0.5}, {1: 0.4, 2: 0.6}]: expected {2: 0.2}, got {3: 0.2}",
		},
		{
			name: "parameters before distributions",
			err: MismatchError{
				Circuit:       "Arith.AddConstant(5, _)",
				Widths:        []int{4},
				Inputs:        []*big.Int{big.NewInt(5)},
				Distributions: []string{"{1: 1}"},
				Expected:      "{6: 1}",
				Actual:        "{7: 1}",
			},
			want: "Arith.AddConstant(5, _): mismatch at widths [4] inputs [5, {1: 1}]: expected {6: 1}, got {7: 1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMalformedSuperpositionError(t *testing.T) {
	t.Parallel()
	err := MalformedSuperpositionError{Stage: "reconstruction", Total: 0.5, Tolerance: 1e-9}
	want := "malformed superposition during reconstruction: total probability 0.5 deviates from 1 by more than 1e-09"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestCoprimeExhaustedError(t *testing.T) {
	t.Parallel()
	err := CoprimeExhaustedError{Modulus: big.NewInt(2), Attempts: 100}
	if err.Error() != "no coprime for 2 after 100 attempts" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDegenerateRangeError(t *testing.T) {
	t.Parallel()
	err := DegenerateRangeError{Low: big.NewInt(5), High: big.NewInt(5), Need: 2}
	if err.Error() != "range [5, 5] does not contain 2 distinct integers" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestEvaluatorError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		cause       error
		expectedMsg string
		checkIs     error
	}{
		{
			name:        "Error includes operation and cause",
			cause:       errors.New("broken pipe"),
			expectedMsg: "evaluator evaluate: broken pipe",
		},
		{
			name:        "errors.Is works with wrapped error",
			cause:       context.Canceled,
			expectedMsg: "evaluator evaluate: context canceled",
			checkIs:     context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := EvaluatorError{Operation: "evaluate", Cause: tt.cause}

			if err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, err.Error())
			}
			if err.Unwrap() != tt.cause {
				t.Error("Unwrap should return the original cause")
			}
			if tt.checkIs != nil && !errors.Is(err, tt.checkIs) {
				t.Errorf("errors.Is should find %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()
	var err error = TimeoutError{Operation: "campaign", Limit: 30 * time.Second}
	if err.Error() != `operation "campaign" timed out after 30s` {
		t.Errorf("unexpected message %q", err.Error())
	}
	var timeoutErr TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatal("expected error to be TimeoutError type")
	}
	if timeoutErr.Limit != 30*time.Second {
		t.Errorf("expected Limit 30s, got %v", timeoutErr.Limit)
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "Error returns formatted message",
			err:      ValidationError{Field: "width", Message: "must be positive"},
			expected: `validation error for "width": must be positive`,
		},
		{
			name:     "Error with different field",
			err:      ValidationError{Field: "offset", Message: "window exceeds dump"},
			expected: `validation error for "offset": window exceeds dump`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error = tt.err
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		original    error
		format      string
		args        []any
		expectedMsg string
		expectNil   bool
		checkIs     error
	}{
		{
			name:        "wraps error with context",
			original:    errors.New("file not found"),
			format:      "failed to load config",
			expectedMsg: "failed to load config: file not found",
		},
		{
			name:        "preserves error chain",
			original:    context.DeadlineExceeded,
			format:      "campaign timed out",
			expectedMsg: "campaign timed out: context deadline exceeded",
			checkIs:     context.DeadlineExceeded,
		},
		{
			name:      "returns nil for nil error",
			original:  nil,
			format:    "some context",
			expectNil: true,
		},
		{
			name:        "supports format arguments",
			original:    errors.New("broken pipe"),
			format:      "circuit %s width %d",
			args:        []any{"Add", 8},
			expectedMsg: "circuit Add width 8: broken pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := WrapError(tt.original, tt.format, tt.args...)

			if tt.expectNil {
				if wrapped != nil {
					t.Error("WrapError(nil, ...) should return nil")
				}
				return
			}
			if wrapped == nil {
				t.Fatal("wrapped error should not be nil")
			}
			if wrapped.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, wrapped.Error())
			}
			if tt.checkIs != nil && !errors.Is(wrapped, tt.checkIs) {
				t.Errorf("wrapped error should preserve %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"context.Canceled", context.Canceled, true},
		{"context.DeadlineExceeded", context.DeadlineExceeded, true},
		{"wrapped context.Canceled", WrapError(context.Canceled, "operation canceled"), true},
		{"regular error", errors.New("some error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsContextError(tt.err); got != tt.expected {
				t.Errorf("IsContextError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"canceled", context.Canceled, ExitErrorCanceled},
		{"deadline", WrapError(context.DeadlineExceeded, "run"), ExitErrorTimeout},
		{"timeout type", TimeoutError{Operation: "run", Limit: time.Second}, ExitErrorTimeout},
		{"config", NewConfigError("bad"), ExitErrorConfig},
		{"malformed", MalformedSuperpositionError{Stage: "reconstruction", Total: 2}, ExitErrorHarness},
		{"mismatch", fmt.Errorf("case: %w", MismatchError{Circuit: "Add"}), ExitErrorMismatch},
		{"evaluator", EvaluatorError{Operation: "dump", Cause: errors.New("eof")}, ExitErrorGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	t.Parallel()
	codes := map[string]int{
		"ExitSuccess":       ExitSuccess,
		"ExitErrorGeneric":  ExitErrorGeneric,
		"ExitErrorTimeout":  ExitErrorTimeout,
		"ExitErrorMismatch": ExitErrorMismatch,
		"ExitErrorConfig":   ExitErrorConfig,
		"ExitErrorHarness":  ExitErrorHarness,
		"ExitErrorCanceled": ExitErrorCanceled,
	}

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess should be 0, got %d", ExitSuccess)
	}
	if ExitErrorCanceled != 130 {
		t.Errorf("ExitErrorCanceled should be 130 (SIGINT convention), got %d", ExitErrorCanceled)
	}

	seen := make(map[int]string)
	for name, code := range codes {
		if existing, ok := seen[code]; ok {
			t.Errorf("duplicate exit code %d: %s and %s", code, existing, name)
		}
		seen[code] = name
	}
}
