package logger

import (
	"context"
	"sync"
)

// Entry is one message recorded by a Capture logger.
type Entry struct {
	Level   string
	Name    string
	Message string
	Fields  map[string]interface{}
}

// Capture records every message in memory. Named children share the buffer.
type Capture struct {
	mu      *sync.Mutex
	entries *[]Entry
	name    string
}

// NewCapture returns an empty Capture logger.
func NewCapture() *Capture {
	return &Capture{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

// NewNop returns a logger that drops everything.
func NewNop() Logger { return nopLogger{} }

func (c *Capture) Named(name string) Logger {
	n := name
	if c.name != "" {
		n = c.name + "." + name
	}
	return &Capture{mu: c.mu, entries: c.entries, name: n}
}

func (c *Capture) Info(_ context.Context, msg string, fields ...Field) {
	c.record("info", msg, fields)
}
func (c *Capture) Error(_ context.Context, msg string, fields ...Field) {
	c.record("error", msg, fields)
}
func (c *Capture) Debug(_ context.Context, msg string, fields ...Field) {
	c.record("debug", msg, fields)
}
func (c *Capture) Warn(_ context.Context, msg string, fields ...Field) {
	c.record("warn", msg, fields)
}

// Fatal records at error level and does not exit.
func (c *Capture) Fatal(_ context.Context, msg string, fields ...Field) {
	c.record("error", msg, fields)
}

func (c *Capture) record(level, msg string, fields []Field) {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	c.mu.Lock()
	*c.entries = append(*c.entries, Entry{Level: level, Name: c.name, Message: msg, Fields: m})
	c.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(*c.entries))
	copy(out, *c.entries)
	return out
}

// Count returns how many entries were recorded at level.
func (c *Capture) Count(level string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Fatal(context.Context, string, ...Field) {}
func (n nopLogger) Named(string) Logger                   { return n }
