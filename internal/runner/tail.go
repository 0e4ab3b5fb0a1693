package runner

import (
	"strings"
	"sync"
)

const defaultTailLines = 50

// logTail keeps the most recent lines of a job's output. Full logs stay
// on the job's stdout stream; the tail is what gets persisted with the
// run so a failed job's last output is visible in reports.
type logTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogTail(max int) *logTail {
	if max <= 0 {
		max = defaultTailLines
	}
	return &logTail{max: max}
}

func (t *logTail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Postgres rejects null bytes in text columns.
	if strings.Contains(line, "\x00") {
		line = strings.ReplaceAll(line, "\x00", "")
	}

	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *logTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
