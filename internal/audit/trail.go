// Package audit records gate decisions and renders them for humans.
//
// Nothing in this package feeds back into evaluation: the trail, the
// dashboard and the metrics only observe decisions the gate already made.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// maxLineSize bounds a single trail line when reading.
const maxLineSize = 1024 * 1024

// Entry is one line of the audit trail.
type Entry struct {
	TS          time.Time          `json:"ts"`
	Session     string             `json:"session"`
	Event       gate.EventType     `json:"event"`
	Target      string             `json:"target,omitempty"`
	Category    workspace.Category `json:"category,omitempty"`
	Phase       phase.State        `json:"phase"`
	Outcome     gate.Outcome       `json:"outcome"`
	Severity    gate.Severity      `json:"severity,omitempty"`
	Reason      string             `json:"reason"`
	Remediation []string           `json:"remediation"`
	ElapsedMS   int64              `json:"elapsed_ms"`
}

// NewEntry converts a decision into a trail entry.
func NewEntry(session string, d gate.Decision, ts time.Time, elapsed time.Duration) Entry {
	remediation := d.Remediation
	if remediation == nil {
		remediation = []string{}
	}
	return Entry{
		TS:          ts.UTC(),
		Session:     session,
		Event:       d.Event,
		Target:      d.Target,
		Category:    d.Category,
		Phase:       d.Phase,
		Outcome:     d.Outcome,
		Severity:    d.Severity,
		Reason:      d.Reason,
		Remediation: remediation,
		ElapsedMS:   elapsed.Milliseconds(),
	}
}

// Logger appends entries to a JSON lines file.
type Logger struct {
	path string
}

// NewLogger creates a logger writing to path.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the trail location.
func (l *Logger) Path() string {
	return l.path
}

// Append writes e as one line. The file and its directory are created on
// first use.
func (l *Logger) Append(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append audit entry: %w", err)
	}
	return f.Close()
}

// ReadEntries returns every well-formed entry in file order. A missing file
// yields no entries. Malformed lines are skipped and counted.
func ReadEntries(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var (
		entries []Entry
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, skipped, fmt.Errorf("read audit log: %w", err)
	}
	return entries, skipped, nil
}

// Tail returns the last n entries, oldest first.
func Tail(path string, n int) ([]Entry, error) {
	entries, _, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
