package cartocss

import (
	"errors"
	"fmt"
	"strings"
)

// Position is a location in stylesheet source.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span covers a range of stylesheet source, from Start up to (not
// including) End.
type Span struct {
	Start  Position
	End    Position
	Source string // stylesheet file name or identifier
}

// ParseError reports a lexical or syntax error encountered while parsing a
// stylesheet, with enough location information to render a caret under the
// offending column.
type ParseError struct {
	Message string
	Span    Span
	Text    string // full source text, for FormatWithContext
}

func (e *ParseError) Error() string {
	if e.Span.Start.Line == 0 {
		return "cartocss: " + e.Message
	}
	return fmt.Sprintf("cartocss: %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// FormatWithContext renders the error with the offending source line and a
// caret under the starting column.
func (e *ParseError) FormatWithContext() string {
	if e.Text == "" || e.Span.Start.Line == 0 {
		return e.Error()
	}
	lines := strings.Split(e.Text, "\n")
	lineNum := e.Span.Start.Line
	if lineNum < 1 || lineNum > len(lines) {
		return e.Error()
	}
	line := lines[lineNum-1]
	col := e.Span.Start.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "cartocss: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

func newParseError(msg string, span Span, text string) *ParseError {
	return &ParseError{Message: msg, Span: span, Text: text}
}

func newParseErrorf(span Span, text string, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Span: span, Text: text}
}

// ParseErrors collects every error a Parse call produced, rather than
// stopping at the first.
type ParseErrors []*ParseError

func (el ParseErrors) Error() string {
	if len(el) == 0 {
		return "cartocss: no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

func (el ParseErrors) HasErrors() bool { return len(el) > 0 }

// TranslatorError reports a problem translating a compiled style into
// Mapnik-style symbolizers. Translation continues past these: the
// surrounding style still loads, and the error is only logged.
type TranslatorError struct {
	Layer   string
	Message string
}

func (e *TranslatorError) Error() string {
	if e.Layer == "" {
		return "cartocss: translate: " + e.Message
	}
	return fmt.Sprintf("cartocss: translate layer %q: %s", e.Layer, e.Message)
}

// Sentinel errors for conditions that aren't attached to a source span.
var (
	errUnknownFunction = errors.New("cartocss: unknown function")
	errWrongArity      = errors.New("cartocss: wrong number of arguments")
	errNotComparable   = errors.New("cartocss: values are not comparable")
)
