package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes domain errors.
type Code string

const (
	// CodeMalformedFile indicates a structural violation in a tree file.
	CodeMalformedFile Code = "MALFORMED_FILE"

	// CodeDrift indicates the terms and vocabulary trees disagree.
	CodeDrift Code = "DRIFT"

	// CodeDuplicateTerm indicates a name collision within a subcategory.
	CodeDuplicateTerm Code = "DUPLICATE_TERM"

	// CodeTermNotFound indicates a referenced path does not exist.
	CodeTermNotFound Code = "TERM_NOT_FOUND"

	// CodeParseError indicates a batch line matches no operation grammar.
	CodeParseError Code = "PARSE_ERROR"

	// CodeInvalidPath indicates a path or name that cannot be stored.
	CodeInvalidPath Code = "INVALID_PATH"
)

// Error is a domain error. Anything else returned by this module is fatal
// (unreadable roots, failed writes).
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Path is the term path or location involved, if any.
	Path string

	// File and Line locate structural problems and batch lines.
	File string
	Line int

	// Details lists individual findings, e.g. every drift difference.
	Details []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "path="+e.Path)
	}
	if e.File != "" {
		ctx = append(ctx, "file="+e.File)
	}
	if e.Line > 0 {
		ctx = append(ctx, fmt.Sprintf("line=%d", e.Line))
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// CodeOf returns the code of the first domain error in err's chain.
func CodeOf(err error) (Code, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	return "", false
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsDomain reports whether err is a domain error, as opposed to a fatal one.
func IsDomain(err error) bool {
	_, ok := CodeOf(err)
	return ok
}

// NewMalformedFile creates an error for a structural violation at file:line.
func NewMalformedFile(file string, line int, format string, args ...any) *Error {
	return &Error{
		Code:    CodeMalformedFile,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
	}
}

// NewDrift creates an error listing every difference between the trees.
func NewDrift(differences []string) *Error {
	return &Error{
		Code:    CodeDrift,
		Message: fmt.Sprintf("terms and vocabulary trees disagree (%d difference(s))", len(differences)),
		Details: differences,
	}
}

// NewDuplicateTerm creates an error for a name collision.
func NewDuplicateTerm(p Path) *Error {
	return &Error{
		Code:    CodeDuplicateTerm,
		Message: "term already exists",
		Path:    p.String(),
	}
}

// NewTermNotFound creates an error for a path that does not resolve.
func NewTermNotFound(p Path) *Error {
	return &Error{
		Code:    CodeTermNotFound,
		Message: "term not found",
		Path:    p.String(),
	}
}

// NewParseError creates an error for an unparseable batch line.
func NewParseError(line int, text, reason string) *Error {
	return &Error{
		Code:    CodeParseError,
		Message: fmt.Sprintf("%s: %q", reason, text),
		Line:    line,
	}
}

// NewInvalidPath creates an error for an unusable path argument.
func NewInvalidPath(input, reason string) *Error {
	return &Error{
		Code:    CodeInvalidPath,
		Message: reason,
		Path:    input,
	}
}
