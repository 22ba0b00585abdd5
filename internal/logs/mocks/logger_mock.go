package mocks

import (
	"strings"
	"sync"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

// LoggerMock discards everything. Use RecorderMock when a test needs to
// assert on what was logged.
type LoggerMock struct{}

func (LoggerMock) Debug(msg string, args ...any) {}
func (LoggerMock) Info(msg string, args ...any)  {}
func (LoggerMock) Warn(msg string, args ...any)  {}
func (LoggerMock) Error(msg string, args ...any) {}
func (LoggerMock) With(args ...any) logs.Logger  { return LoggerMock{} }

var _ logs.Logger = LoggerMock{}

type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// RecorderMock captures log entries for assertions. With returns the
// same sink so derived loggers keep recording here.
type RecorderMock struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *RecorderMock) Debug(msg string, args ...any) { r.record("debug", msg, args) }
func (r *RecorderMock) Info(msg string, args ...any)  { r.record("info", msg, args) }
func (r *RecorderMock) Warn(msg string, args ...any)  { r.record("warn", msg, args) }
func (r *RecorderMock) Error(msg string, args ...any) { r.record("error", msg, args) }
func (r *RecorderMock) With(args ...any) logs.Logger  { return r }

func (r *RecorderMock) record(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (r *RecorderMock) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Logged reports whether an entry at the level has a message containing
// the fragment.
func (r *RecorderMock) Logged(level, fragment string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Level == level && strings.Contains(e.Msg, fragment) {
			return true
		}
	}
	return false
}

var _ logs.Logger = (*RecorderMock)(nil)
