package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCode reports the mapped Code for a given error.
//
// If err can be unwrapped into *Error, return its Code; otherwise Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into an Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// mysqlKeyRe pulls the key name out of "Duplicate entry 'x' for key 'users.username'".
var mysqlKeyRe = regexp.MustCompile(`for key '([^']+)'`)

// mysqlColumnRe pulls the column out of "Column 'email' cannot be null".
var mysqlColumnRe = regexp.MustCompile(`[Cc]olumn '([^']+)'`)

// ConvertMySQLError converts a *mysql.MySQLError into an Error.
//
// MySQL reports numbers, not SQLSTATE classes, so the common constraint
// numbers are mapped explicitly.
func ConvertMySQLError(src *mysql.MySQLError) *Error {
	out := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(int(src.Number)),
		Message:      src.Message,
		driverErr:    src,
	}

	switch src.Number {
	case 1062:
		out.Code = UniqueViolation
		if m := mysqlKeyRe.FindStringSubmatch(src.Message); len(m) > 1 {
			// MySQL 8 reports keys as "<table>.<index>".
			if table, key, ok := strings.Cut(m[1], "."); ok {
				out.TableName = table
				out.ConstraintName = key
			} else {
				out.ConstraintName = m[1]
			}
		}
	case 1451, 1452:
		out.Code = ForeignKeyViolation
	case 1048, 1364:
		out.Code = NotNullViolation
	case 3819:
		out.Code = CheckViolation
	case 1146:
		out.Code = UndefinedTable
	case 1054:
		out.Code = UndefinedColumn
	case 1064:
		out.Code = SyntaxError
	}

	if m := mysqlColumnRe.FindStringSubmatch(src.Message); len(m) > 1 {
		out.ColumnName = m[1]
	}
	return out
}

// sqliteConstraintRe matches "UNIQUE constraint failed: users.username".
var sqliteConstraintRe = regexp.MustCompile(`(UNIQUE|NOT NULL|CHECK|FOREIGN KEY) constraint failed(?:: ([^\s.,]+)\.([^\s,()]+))?`)

// ConvertSQLiteError converts a modernc *sqlite.Error into an Error.
//
// Extended result codes are checked first; the message is parsed as a
// fallback and to recover the table/column names.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	out := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(src.Code()),
		Message:      src.Error(),
		driverErr:    src,
	}

	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		out.Code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		out.Code = ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		out.Code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		out.Code = CheckViolation
	}

	if m := sqliteConstraintRe.FindStringSubmatch(out.Message); len(m) > 1 {
		if out.Code == Other {
			switch m[1] {
			case "UNIQUE":
				out.Code = UniqueViolation
			case "NOT NULL":
				out.Code = NotNullViolation
			case "CHECK":
				out.Code = CheckViolation
			case "FOREIGN KEY":
				out.Code = ForeignKeyViolation
			}
		}
		out.TableName = m[2]
		out.ColumnName = m[3]
	}

	switch {
	case strings.Contains(out.Message, "no such table"):
		out.Code = UndefinedTable
	case strings.Contains(out.Message, "no such column"), strings.Contains(out.Message, "has no column named"):
		out.Code = UndefinedColumn
	case strings.Contains(out.Message, "syntax error"):
		out.Code = SyntaxError
	}
	return out
}

// Convert normalizes any supported driver error into an Error.
// It returns nil when err carries no known driver error.
func Convert(err error) *Error {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return ConvertMySQLError(myErr)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}
	return nil
}

// generateErrorCode creates consistent application error codes from DB errors.
//
// Output format:
//
//	<DOMAIN>_<ACTION>
//
// Example:
//
//	users + UniqueViolation => USER_ALREADY_EXISTS
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case UndefinedTable:
		action = "TABLE_UNDEFINED"
	case UndefinedColumn:
		action = "COLUMN_UNDEFINED"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage produces a message safe to show to callers.
// It never includes the raw driver text.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	case UndefinedTable:
		return "The requested table does not exist"

	case UndefinedColumn:
		return "One or more requested columns do not exist"

	default:
		return "An error occurred while executing the query"
	}
}

// getEntityName tries to infer an entity name from table/column data.
//
// Priority rules:
//  1. If column ends with "_id", use that base name.
//  2. Otherwise use table name, singularized if it ends with "s".
//  3. Otherwise fallback to "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case.
//
//	"first_name" -> "First Name"
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation tries to infer the column name from a unique constraint name.
//
// It supports two conventions:
//
//  1. "unique_<table>_<column>"
//  2. "<table>_<column>_(key|ukey)"
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	matches := uniqueKeyRe.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

var uniqueKeyRe = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// HandleError converts a low-level database error into an *errs.Error of
// kind QueryExecution.
//
// Output:
//   - If already *errs.Error: returned unchanged
//   - If a known driver error: Code and Message derived from it
//   - Otherwise: a generic message, the cause kept for Unwrap
//
// Context cancellation stays reachable through errors.Is.
func HandleError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.KindQueryExecution, op, err, "The query was cancelled")
	}

	if sqlErr := Convert(err); sqlErr != nil {
		message := formatUserFriendlyMessage(sqlErr)
		if sqlErr.Code == UniqueViolation {
			column := sqlErr.ColumnName
			if column == "" {
				column = extractColumnForUniqueViolation(sqlErr.ConstraintName)
			}
			if column != "" {
				message = strings.ReplaceAll(message, "identifier", humanizeText(column))
			}
		}

		out := errs.Wrap(errs.KindQueryExecution, op, sqlErr, message)
		out.Code = generateErrorCode(sqlErr.TableName, sqlErr.Code)
		return out
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		out := errs.Wrap(errs.KindQueryExecution, op, err, "Resource not found")
		out.Code = "RECORD_NOT_FOUND"
		return out
	}

	return errs.Wrap(errs.KindQueryExecution, op, err, "An error occurred while executing the query")
}
