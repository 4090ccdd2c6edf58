// Package testkit provides helpers shared by package tests.
// It must not import platform packages whose own tests use it
package testkit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds Context when the test binary has no deadline of its own
const DefaultTimeout = 30 * time.Second

// Context returns a context canceled when the test ends or a little before its deadline
func Context(t testing.TB) context.Context {
	t.Helper()
	d := time.Now().Add(DefaultTimeout)
	if tt, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if dl, ok := tt.Deadline(); ok && dl.Add(-time.Second).Before(d) {
			d = dl.Add(-time.Second)
		}
	}
	ctx, cancel := context.WithDeadline(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

// LogBuffer collects JSON log lines written by a captured logger
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines decodes every line written so far; lines that are not JSON are skipped
func (b *LogBuffer) Lines() []map[string]any {
	var out []map[string]any
	for _, l := range strings.Split(b.String(), "\n") {
		var m map[string]any
		if json.Unmarshal([]byte(l), &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the lines whose message equals msg
func (b *LogBuffer) Find(msg string) []map[string]any {
	var out []map[string]any
	for _, l := range b.Lines() {
		if l[zerolog.MessageFieldName] == msg {
			out = append(out, l)
		}
	}
	return out
}

// CaptureLog returns a debug level logger writing JSON into the returned buffer
func CaptureLog(t testing.TB) (zerolog.Logger, *LogBuffer) {
	t.Helper()
	b := &LogBuffer{}
	return zerolog.New(b).Level(zerolog.DebugLevel), b
}
