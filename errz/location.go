package errz

import (
	"fmt"
	"strings"
)

// SourceLocation identifies a line of a chunk's source.
type SourceLocation struct {
	Source string // chunk name, e.g. "@main.lua"
	Line   int    // 1-based line number
}

// String returns the location in the "source:line" form used by Lua.
func (s SourceLocation) String() string {
	src := ChunkID(s.Source)
	if s.Line > 0 {
		return fmt.Sprintf("%s:%d", src, s.Line)
	}
	return src
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Source == "" && s.Line == 0
}

// ChunkID converts a chunk source name into its display form. Names starting
// with '@' or '=' are file names and are shown without the prefix; anything
// else is source text and is shown quoted.
func ChunkID(source string) string {
	if source == "" {
		return "?"
	}
	switch source[0] {
	case '@', '=':
		return source[1:]
	}
	line := source
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i] + "..."
	}
	return fmt.Sprintf("[string %q]", line)
}

// StackFrame represents a single frame in a stack trace.
type StackFrame struct {
	Function string
	Location SourceLocation
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location.String())
	}
	return fmt.Sprintf("at %s", f.Location.String())
}

// FormatStackTrace formats a slice of stack frames as a human-readable string.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}
