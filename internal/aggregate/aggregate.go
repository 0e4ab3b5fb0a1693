// Package aggregate computes the overall outcome of a pipeline run from
// the terminal results of its jobs. The gate is a conjunction over the
// required subset: every required job must have succeeded. Informational
// jobs appear in the report but never affect the outcome.
package aggregate

import (
	"fmt"
	"sort"

	"pipegate/internal/result"
)

// ErrUnknownJob is returned when a required job name is not present in the
// results mapping. This is a configuration error and must never degrade
// into a silent gate failure.
var ErrUnknownJob = fmt.Errorf("required job not present in results")

// Row is one job's line in the summary.
type Row struct {
	Name     string        `json:"name"`
	Result   result.Result `json:"result"`
	Required bool          `json:"required"`
}

// Summary is the outcome of aggregating a run.
// It is a pure function of its inputs: the same results and required set
// always produce an identical Summary, including row order.
type Summary struct {
	OverallOK bool  `json:"overall_ok"`
	Rows      []Row `json:"rows"`
}

// Aggregate folds the per-job results into an overall outcome.
// required names jobs that gate the run; every entry must exist as a key
// in results (duplicates are tolerated). Results are validated against
// the closed result set before any evaluation happens.
func Aggregate(results map[string]result.Result, required []string) (Summary, error) {
	for name, r := range results {
		if !r.Valid() {
			return Summary{}, fmt.Errorf("job %q: %w: %q", name, result.ErrUnknownResult, r)
		}
	}

	requiredSet := make(map[string]bool, len(required))
	for _, name := range required {
		if _, ok := results[name]; !ok {
			return Summary{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
		}
		requiredSet[name] = true
	}

	summary := Summary{OverallOK: true, Rows: make([]Row, 0, len(results))}
	for name, r := range results {
		req := requiredSet[name]
		if req && !r.Succeeded() {
			summary.OverallOK = false
		}
		summary.Rows = append(summary.Rows, Row{Name: name, Result: r, Required: req})
	}

	// Required jobs first, then lexicographic. Map iteration order must
	// not leak into the report.
	sort.Slice(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.Required != b.Required {
			return a.Required
		}
		return a.Name < b.Name
	})

	return summary, nil
}

// RequiredFailures returns the names of required jobs that did not
// succeed, in row order.
func (s Summary) RequiredFailures() []string {
	var names []string
	for _, row := range s.Rows {
		if row.Required && !row.Result.Succeeded() {
			names = append(names, row.Name)
		}
	}
	return names
}
