// Package errs defines the error kinds shared by every layer.
//
// Its purpose is to give callers a small, stable set of error shapes
// (state, not-found, validation, schema mismatch, query execution,
// serialization, unsupported type) that play nicely with the standard
// errors package:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
//
// - Every error carries the operation that produced it.
// - Query errors carry a machine-friendly Code (e.g. "USER_ALREADY_EXISTS").
// - Validation errors can carry field-level details.
package errs
