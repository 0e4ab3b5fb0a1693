// Package result defines the closed set of terminal job results.
package result

import (
	"fmt"
	"strings"
)

// Result is the terminal state of a pipeline job.
// The set is closed: anything outside the four constants below is rejected
// by Parse, so a typo like "succes" can never slip through a comparison.
type Result string

const (
	// Success means the job completed with a zero exit code.
	Success Result = "success"
	// Failure means the job ran and exited non-zero, or failed to start.
	Failure Result = "failure"
	// Cancelled means the job was interrupted before it could finish,
	// or never started because the run was cancelled.
	Cancelled Result = "cancelled"
	// Skipped means the job never started because one of its
	// dependencies did not succeed.
	Skipped Result = "skipped"
)

// ErrUnknownResult is returned by Parse for strings outside the closed set.
var ErrUnknownResult = fmt.Errorf("unknown result")

// Parse converts an external string (CLI input, API payload, DB column)
// into a Result. Matching is case-insensitive and ignores surrounding
// whitespace; unknown values are an error, never silently coerced.
func Parse(s string) (Result, error) {
	switch Result(strings.ToLower(strings.TrimSpace(s))) {
	case Success:
		return Success, nil
	case Failure:
		return Failure, nil
	case Cancelled:
		return Cancelled, nil
	case Skipped:
		return Skipped, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResult, s)
	}
}

// Valid reports whether r is one of the four known results.
func (r Result) Valid() bool {
	switch r {
	case Success, Failure, Cancelled, Skipped:
		return true
	}
	return false
}

// Succeeded reports whether r counts toward a passing gate.
// Only Success does; failure, cancelled and skipped are all non-success.
func (r Result) Succeeded() bool {
	return r == Success
}

func (r Result) String() string {
	return string(r)
}
