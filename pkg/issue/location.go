package issue

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// SourceLocation names the point in a test body that produced an
// issue. The runtime never interprets it.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// Caller returns the location of the function skip frames above
// the caller of Caller. Caller(0) is the line that calls Caller.
func Caller(skip int) SourceLocation {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return SourceLocation{}
	}
	return SourceLocation{File: file, Line: line}
}

// IsZero reports whether no location was supplied.
func (l SourceLocation) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

// String renders "file:line" or "file:line:column" using the base
// name of the file.
func (l SourceLocation) String() string {
	if l.IsZero() {
		return "<unknown>"
	}
	name := filepath.Base(l.File)
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", name, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", name, l.Line)
}
