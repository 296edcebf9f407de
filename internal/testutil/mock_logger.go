// Package testutil provides shared test doubles for the scan services.
package testutil

import (
	"strings"
	"sync"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
)

// LogMessage is one captured entry. Fields holds the fields bound through
// With and WithError followed by the call's own fields. Logger is the dotted
// Named path, empty for the root.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the last value recorded under key.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return nil, false
}

type recordBuffer struct {
	mu      sync.Mutex
	entries []LogMessage
}

// MockLogger records entries for assertions. Children created with Named,
// With or WithError write into their parent's buffer.
type MockLogger struct {
	buf   *recordBuffer
	name  string
	bound []logging.Field
}

var _ logging.Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{buf: &recordBuffer{}}
}

func (m *MockLogger) child(name string, extra ...logging.Field) *MockLogger {
	bound := make([]logging.Field, 0, len(m.bound)+len(extra))
	bound = append(append(bound, m.bound...), extra...)
	return &MockLogger{buf: m.buf, name: name, bound: bound}
}

func (m *MockLogger) record(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.bound)+len(fields))
	all = append(append(all, m.bound...), fields...)

	m.buf.mu.Lock()
	m.buf.entries = append(m.buf.entries, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
	m.buf.mu.Unlock()
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.record("error", msg, fields) }

// Fatal records at fatal level and returns; tests never exit.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.record("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return m.child(m.name, fields...)
}

func (m *MockLogger) WithError(err error) logging.Logger {
	return m.child(m.name, logging.Err(err))
}

func (m *MockLogger) Named(name string) logging.Logger {
	if m.name != "" {
		name = m.name + "." + name
	}
	return m.child(name)
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a snapshot of everything recorded so far.
func (m *MockLogger) GetMessages() []LogMessage {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	return append([]LogMessage(nil), m.buf.entries...)
}

// Clear empties the shared buffer.
func (m *MockLogger) Clear() {
	m.buf.mu.Lock()
	m.buf.entries = nil
	m.buf.mu.Unlock()
}

// Find returns the entries matching pred.
func (m *MockLogger) Find(pred func(LogMessage) bool) []LogMessage {
	var out []LogMessage
	for _, e := range m.GetMessages() {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockLogger) HasLevel(level string) bool {
	return len(m.Find(func(e LogMessage) bool { return e.Level == level })) > 0
}

func (m *MockLogger) HasMessage(level, msg string) bool {
	return len(m.Find(func(e LogMessage) bool { return e.Level == level && e.Message == msg })) > 0
}

// HasMessageContaining matches on a message substring at any level.
func (m *MockLogger) HasMessageContaining(substr string) bool {
	return len(m.Find(func(e LogMessage) bool { return strings.Contains(e.Message, substr) })) > 0
}

// NewNopLogger is for tests that make no logging assertions.
func NewNopLogger() logging.Logger { return logging.NewNopLogger() }

//Personal.AI order the ending
