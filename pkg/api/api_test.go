package api

import (
	"encoding/json"
	"testing"
)

func TestResultsMap_PlainShape(t *testing.T) {
	var m ResultsMap
	if err := json.Unmarshal([]byte(`{"build": "success", "test": "failure"}`), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m["build"] != "success" || m["test"] != "failure" {
		t.Errorf("m = %v", m)
	}
}

func TestResultsMap_NeedsShape(t *testing.T) {
	var m ResultsMap
	data := []byte(`{"build": {"result": "success"}, "test": {"result": "skipped"}}`)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m["build"] != "success" || m["test"] != "skipped" {
		t.Errorf("m = %v", m)
	}
}

func TestResultsMap_RejectsOtherShapes(t *testing.T) {
	for _, doc := range []string{`["success"]`, `"success"`, `{"build": 1}`} {
		var m ResultsMap
		if err := json.Unmarshal([]byte(doc), &m); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", doc)
		}
	}
}

func TestResultsMap_MarshalsPlain(t *testing.T) {
	data, err := json.Marshal(ResultsMap{"build": "success"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"build":"success"}` {
		t.Errorf("Marshal = %s", data)
	}
}
