// Package errors accumulates and renders compiler diagnostics: lexical,
// syntax, name, type, control-flow, and import errors, plus warnings. It
// formats each with a file:line:column header and a caret pointing at the
// offending source span.
package errors

import (
	"fmt"
	"strings"

	"github.com/clowder-lang/clowder/internal/token"
)

// Kind classifies a diagnostic per the error taxonomy.
type Kind string

const (
	Lexical      Kind = "Lexical Error"
	Syntax       Kind = "Syntax Error"
	Name         Kind = "Name Error"
	Type         Kind = "Type Error"
	ControlFlow  Kind = "Control-flow Error"
	Import       Kind = "Import Error"
	WarningKind  Kind = "Warning"
)

// CompilerError is a single diagnostic with the source range it applies to.
type CompilerError struct {
	Kind    Kind
	Message string
	Pos     token.Position
}

// NewCompilerError builds a diagnostic at pos.
func NewCompilerError(kind Kind, pos token.Position, message string) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, Pos: pos}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders the diagnostic with a file/line/column header, the source
// line, and a caret under the offending column. If color is true, ANSI
// escapes highlight the caret and message.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.Pos.FileName != "" {
		fmt.Fprintf(&sb, "%s: %s:%d:%d\n", e.Kind, e.Pos.FileName, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s: line %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column)
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Pos.Source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(e.Pos.Source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors renders a batch of diagnostics, numbering them when there is
// more than one.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d error(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&sb, "[Error %d of %d]\n", i+1, len(errs))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// Handler is the shared diagnostic sink threaded by reference through every
// pipeline stage: lexer, parser, and lowering engine all report into the
// same Handler for a single compilation.
type Handler struct {
	errors   []*CompilerError
	warnings []*CompilerError
	hasError bool
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Error records an error-severity diagnostic and sets the sticky has-error
// flag.
func (h *Handler) Error(kind Kind, pos token.Position, format string, args ...any) {
	h.errors = append(h.errors, NewCompilerError(kind, pos, fmt.Sprintf(format, args...)))
	h.hasError = true
}

// Warn records a warning-severity diagnostic; it does not set has-error.
func (h *Handler) Warn(pos token.Position, format string, args ...any) {
	h.warnings = append(h.warnings, NewCompilerError(WarningKind, pos, fmt.Sprintf(format, args...)))
}

// HasError reports the sticky error flag.
func (h *Handler) HasError() bool {
	return h.hasError
}

// Errors returns the accumulated errors, in report order.
func (h *Handler) Errors() []*CompilerError {
	return h.errors
}

// Warnings returns the accumulated warnings, in report order.
func (h *Handler) Warnings() []*CompilerError {
	return h.warnings
}

// Report renders warnings first, then errors, into a string (the caller
// decides whether to print it to stdout or stderr), and returns it together
// with whether the stage succeeded (no errors recorded).
func (h *Handler) Report(color bool) (output string, ok bool) {
	var sb strings.Builder
	for _, w := range h.warnings {
		sb.WriteString(w.Format(color))
		sb.WriteString("\n")
	}
	if len(h.errors) > 0 {
		sb.WriteString(FormatErrors(h.errors, color))
		sb.WriteString("\n")
	}
	return sb.String(), !h.hasError
}
