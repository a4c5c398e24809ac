package accessor

import "github.com/deppfellow/go-absl/internal/errs"

// Error is the error type returned by every operation.
type Error = errs.Error

// FieldError is a per-field detail attached to validation and schema errors.
type FieldError = errs.FieldError

// Sentinels for errors.Is. Each matches every Error of its kind.
var (
	// ErrState: an operation ran on a nil or zero Table.
	ErrState = errs.ErrState
	// ErrNotFound: UseTable or Definition named an unregistered table.
	ErrNotFound = errs.ErrNotFound
	// ErrValidation: arguments were missing, empty or malformed.
	ErrValidation = errs.ErrValidation
	// ErrSchemaMismatch: row data named columns the table does not declare.
	ErrSchemaMismatch = errs.ErrSchemaMismatch
	// ErrQueryExecution: the database rejected or failed a statement.
	ErrQueryExecution = errs.ErrQueryExecution
	// ErrSerialization: JSON encoding of a value or result failed.
	ErrSerialization = errs.ErrSerialization
	// ErrUnsupportedType: a value had no binding rule.
	ErrUnsupportedType = errs.ErrUnsupportedType
)
