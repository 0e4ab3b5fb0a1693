package aggregate

import (
	"errors"
	"reflect"
	"testing"

	"pipegate/internal/result"
)

func TestAggregate_Gate(t *testing.T) {
	tests := []struct {
		name     string
		results  map[string]result.Result
		required []string
		wantOK   bool
	}{
		{
			name: "all required succeed",
			results: map[string]result.Result{
				"build": result.Success,
				"test":  result.Success,
			},
			required: []string{"build", "test"},
			wantOK:   true,
		},
		{
			name: "required failure fails the gate",
			results: map[string]result.Result{
				"build": result.Success,
				"test":  result.Failure,
			},
			required: []string{"build", "test"},
			wantOK:   false,
		},
		{
			name: "required cancelled fails the gate",
			results: map[string]result.Result{
				"build": result.Success,
				"test":  result.Cancelled,
			},
			required: []string{"build", "test"},
			wantOK:   false,
		},
		{
			name: "required skipped fails the gate",
			results: map[string]result.Result{
				"build": result.Success,
				"test":  result.Skipped,
			},
			required: []string{"build", "test"},
			wantOK:   false,
		},
		{
			name: "informational failure does not gate",
			results: map[string]result.Result{
				"build":         result.Success,
				"test":          result.Success,
				"security-scan": result.Failure,
			},
			required: []string{"build", "test"},
			wantOK:   true,
		},
		{
			name: "no required jobs always passes",
			results: map[string]result.Result{
				"lint": result.Failure,
			},
			required: nil,
			wantOK:   true,
		},
		{
			name: "duplicate required names tolerated",
			results: map[string]result.Result{
				"build": result.Success,
			},
			required: []string{"build", "build"},
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Aggregate(tt.results, tt.required)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if summary.OverallOK != tt.wantOK {
				t.Errorf("OverallOK = %v, want %v", summary.OverallOK, tt.wantOK)
			}
			if len(summary.Rows) != len(tt.results) {
				t.Errorf("got %d rows, want %d", len(summary.Rows), len(tt.results))
			}
		})
	}
}

func TestAggregate_UnknownRequiredJob(t *testing.T) {
	results := map[string]result.Result{"build": result.Success}

	_, err := Aggregate(results, []string{"build", "deploy"})
	if err == nil {
		t.Fatal("expected error for unknown required job, got nil")
	}
	if !errors.Is(err, ErrUnknownJob) {
		t.Errorf("error = %v, want ErrUnknownJob", err)
	}
}

func TestAggregate_InvalidResult(t *testing.T) {
	results := map[string]result.Result{"build": result.Result("succes")}

	_, err := Aggregate(results, []string{"build"})
	if err == nil {
		t.Fatal("expected error for invalid result, got nil")
	}
	if !errors.Is(err, result.ErrUnknownResult) {
		t.Errorf("error = %v, want ErrUnknownResult", err)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	results := map[string]result.Result{
		"zeta":  result.Success,
		"alpha": result.Failure,
		"mid":   result.Skipped,
		"scan":  result.Failure,
	}
	required := []string{"zeta", "alpha"}

	first, err := Aggregate(results, required)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := Aggregate(results, required)
		if err != nil {
			t.Fatalf("Aggregate failed on repeat: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Aggregate not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestAggregate_RowOrder(t *testing.T) {
	results := map[string]result.Result{
		"zeta":  result.Success,
		"alpha": result.Success,
		"scan":  result.Failure,
		"lint":  result.Success,
	}

	summary, err := Aggregate(results, []string{"zeta", "alpha"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	var names []string
	for _, row := range summary.Rows {
		names = append(names, row.Name)
	}
	want := []string{"alpha", "zeta", "lint", "scan"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("row order = %v, want %v", names, want)
	}
}

func TestRequiredFailures(t *testing.T) {
	results := map[string]result.Result{
		"build": result.Failure,
		"test":  result.Cancelled,
		"scan":  result.Failure,
		"docs":  result.Success,
	}

	summary, err := Aggregate(results, []string{"build", "test", "docs"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	want := []string{"build", "test"}
	if got := summary.RequiredFailures(); !reflect.DeepEqual(got, want) {
		t.Errorf("RequiredFailures() = %v, want %v", got, want)
	}
}
