// Package frontend abstracts the command surface's output sink. The core
// never writes to a specific file descriptor; every user-visible line goes
// through a Frontend.
package frontend

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Frontend accepts printf-style formatted lines from the command surface.
type Frontend interface {
	Printf(format string, args ...any)
}

// StdoutFrontend writes to an io.Writer, defaulting to os.Stdout.
type StdoutFrontend struct {
	out io.Writer
}

// NewStdoutFrontend returns a Frontend writing to os.Stdout.
func NewStdoutFrontend() *StdoutFrontend {
	return &StdoutFrontend{out: os.Stdout}
}

// Printf writes format/args followed by a newline if the format doesn't
// already end in one.
func (f *StdoutFrontend) Printf(format string, args ...any) {
	fmt.Fprintf(f.out, format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(f.out)
	}
}

// BufferFrontend records every formatted line in memory, for tests that
// want to assert on exact command output without touching a terminal.
type BufferFrontend struct {
	mu    sync.Mutex
	lines []string
}

// NewBufferFrontend returns an empty BufferFrontend.
func NewBufferFrontend() *BufferFrontend {
	return &BufferFrontend{}
}

// Printf records one formatted line (newline-trimmed).
func (f *BufferFrontend) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	f.mu.Lock()
	f.lines = append(f.lines, strings.TrimRight(line, "\n"))
	f.mu.Unlock()
}

// Lines returns every recorded line, in order.
func (f *BufferFrontend) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

// Last returns the most recently recorded line, or "" if none.
func (f *BufferFrontend) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) == 0 {
		return ""
	}
	return f.lines[len(f.lines)-1]
}

// Reset clears every recorded line.
func (f *BufferFrontend) Reset() {
	f.mu.Lock()
	f.lines = nil
	f.mu.Unlock()
}
