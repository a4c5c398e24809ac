package errs

import (
	"fmt"
	"strings"
)

// Kind is a string-based enum naming the category of an Error.
type Kind string

const (
	// KindState means an operation ran without the state it needs
	// (e.g. no table selected).
	KindState Kind = "STATE"

	// KindNotFound means a named thing was never registered.
	KindNotFound Kind = "NOT_FOUND"

	// KindValidation means arguments were missing, empty or malformed.
	KindValidation Kind = "VALIDATION"

	// KindSchemaMismatch means row data named columns the table does not declare.
	KindSchemaMismatch Kind = "SCHEMA_MISMATCH"

	// KindQueryExecution means the database rejected or failed a statement.
	KindQueryExecution Kind = "QUERY_EXECUTION"

	// KindSerialization means encoding a value or a result failed.
	KindSerialization Kind = "SERIALIZATION"

	// KindUnsupportedType means a value had no binding rule.
	KindUnsupportedType Kind = "UNSUPPORTED_TYPE"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrState           = &Error{Kind: KindState}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrSchemaMismatch  = &Error{Kind: KindSchemaMismatch}
	ErrQueryExecution  = &Error{Kind: KindQueryExecution}
	ErrSerialization   = &Error{Kind: KindSerialization}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
)

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "email", "error": "must be a valid email address" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the main error type of the module.
//
// Fields:
//   - Kind: category used by Is.
//   - Op: the operation that failed (e.g. "accessor.fetch").
//   - Code: machine-friendly code, set for query errors.
//   - Message: human-friendly message. Never contains raw driver internals.
//   - Fields: per-field validation errors.
//   - Err: the underlying cause, reachable through Unwrap.
type Error struct {
	Kind    Kind         `json:"kind"`
	Op      string       `json:"op,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

// Error makes *Error satisfy the built-in error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
//
// Only the Kind is compared, so the package sentinels match every
// error of their category regardless of Op or Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithOp returns a copy of this Error with Op replaced.
func (e *Error) WithOp(op string) *Error {
	return &Error{
		Kind:    e.Kind,
		Op:      op,
		Code:    e.Code,
		Message: e.Message,
		Fields:  e.Fields,
		Err:     e.Err,
	}
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, op string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Code:    MakeUpperCaseWithUnderscores(string(kind)),
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, op string, cause error, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Code:    MakeUpperCaseWithUnderscores(string(kind)),
		Message: message,
		Err:     cause,
	}
}

// NewStateError creates a KindState error.
func NewStateError(op, message string) *Error {
	return New(KindState, op, "%s", message)
}

// NewNotFoundError creates a KindNotFound error.
func NewNotFoundError(op, message string) *Error {
	return New(KindNotFound, op, "%s", message)
}

// NewValidationError creates a KindValidation error, optionally with field errors.
func NewValidationError(op, message string, fields []FieldError) *Error {
	err := New(KindValidation, op, "%s", message)
	err.Fields = fields
	return err
}

// NewSchemaMismatchError creates a KindSchemaMismatch error listing the
// offending columns as field errors.
func NewSchemaMismatchError(op, table string, columns []string) *Error {
	fields := make([]FieldError, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, FieldError{Field: c, Error: "is not a declared column of " + table})
	}
	err := New(KindSchemaMismatch, op, "unknown columns for table %s: %s", table, strings.Join(columns, ", "))
	err.Fields = fields
	return err
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"unique violation" -> "UNIQUE_VIOLATION"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
