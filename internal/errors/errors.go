package apperrors

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates every verification case passed.
	ExitErrorGeneric  = 1   // Indicates a generic error (engine failure, I/O).
	ExitErrorTimeout  = 2   // Indicates the run timed out.
	ExitErrorMismatch = 3   // Indicates at least one arithmetic mismatch.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorHarness  = 5   // Indicates a malformed superposition (harness defect).
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// MismatchError reports that the decoded result of an operation differs from
// the classical reference. It carries the full input tuple so the failing case
// can be reproduced.
type MismatchError struct {
	// Circuit is the name of the operation under test.
	Circuit string
	// Widths are the register widths of the case.
	Widths []int
	// Inputs are the classical operands and parameters.
	Inputs []*big.Int
	// Distributions are the prepared input superpositions of a
	// superposition check, rendered in register order.
	Distributions []string
	// Expected is the rendered classical reference result.
	Expected string
	// Actual is the rendered decoded result.
	Actual string
}

// Error returns a formatted message describing the mismatch.
func (e MismatchError) Error() string {
	inputs := JoinInts(e.Inputs)
	if len(e.Distributions) > 0 {
		if inputs != "" {
			inputs += ", "
		}
		inputs += strings.Join(e.Distributions, ", ")
	}
	return fmt.Sprintf("%s: mismatch at widths %v inputs [%s]: expected %s, got %s",
		e.Circuit, e.Widths, inputs, e.Expected, e.Actual)
}

// MalformedSuperpositionError reports a probability distribution whose total
// deviates from 1. It signals a harness configuration defect (wrong output
// register width or position), not an arithmetic bug in the circuit.
type MalformedSuperpositionError struct {
	// Stage names where the distribution was built ("construction",
	// "reconstruction", "convolution").
	Stage string
	// Total is the observed probability sum.
	Total float64
	// Tolerance is the absolute tolerance that was exceeded.
	Tolerance float64
}

// Error returns a formatted message describing the malformed distribution.
func (e MalformedSuperpositionError) Error() string {
	return fmt.Sprintf("malformed superposition during %s: total probability %.12g deviates from 1 by more than %g",
		e.Stage, e.Total, e.Tolerance)
}

// CoprimeExhaustedError reports that a random coprime search gave up.
type CoprimeExhaustedError struct {
	// Modulus is the value a coprime was searched for.
	Modulus *big.Int
	// Attempts is the number of candidates drawn.
	Attempts int
}

// Error returns a formatted message describing the exhausted search.
func (e CoprimeExhaustedError) Error() string {
	return fmt.Sprintf("no coprime for %s after %d attempts", e.Modulus, e.Attempts)
}

// DegenerateRangeError reports a sampling range that cannot provide the
// requested number of distinct integers.
type DegenerateRangeError struct {
	Low  *big.Int
	High *big.Int
	// Need is the number of distinct integers requested.
	Need int
}

// Error returns a formatted message describing the degenerate range.
func (e DegenerateRangeError) Error() string {
	return fmt.Sprintf("range [%s, %s] does not contain %d distinct integers", e.Low, e.High, e.Need)
}

// EvaluatorError encapsulates a failure of the external evaluator while
// preserving the original cause.
type EvaluatorError struct {
	// Operation is the evaluator capability that failed ("evaluate", "dump", "reset").
	Operation string
	// Cause is the underlying error.
	Cause error
}

// Error returns the operation and the message of the underlying cause.
func (e EvaluatorError) Error() string {
	return fmt.Sprintf("evaluator %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the original wrapped error.
func (e EvaluatorError) Unwrap() error { return e.Cause }

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the exit code of its failure category.
func ExitCodeFor(err error) int {
	var (
		mismatch  MismatchError
		malformed MalformedSuperpositionError
		cfgErr    ConfigError
		timeout   TimeoutError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeout):
		return ExitErrorTimeout
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.As(err, &malformed):
		return ExitErrorHarness
	case errors.As(err, &mismatch):
		return ExitErrorMismatch
	default:
		return ExitErrorGeneric
	}
}

// JoinInts renders integers as a comma separated decimal list.
func JoinInts(xs []*big.Int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}
