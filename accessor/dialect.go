package accessor

import (
	"strconv"
	"strings"

	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/jackc/pgx/v5"
)

// Dialect renders the parts of a statement that differ between databases.
type Dialect interface {
	// Name is the driver name the dialect targets ("postgres", "mysql", "sqlite").
	Name() string

	// QuoteIdent quotes a table or column name, escaping embedded quote characters.
	QuoteIdent(name string) string

	// Placeholder returns the n-th (1-based) parameter marker.
	Placeholder(n int) string

	// Regexp renders a regular-expression match of column against a bound pattern.
	Regexp(column, pattern string) string

	// Limit renders a LIMIT clause from bound offset and count markers.
	Limit(offset, count string) string
}

var (
	// Postgres targets PostgreSQL through pgx: "$n" markers, "~" matches.
	Postgres Dialect = postgresDialect{}

	// MySQL targets MySQL/MariaDB: back-tick identifiers, "?" markers.
	MySQL Dialect = mysqlDialect{}

	// SQLite targets SQLite. REGEXP needs a registered regexp() function;
	// internal/database registers one when it opens the handle.
	SQLite Dialect = sqliteDialect{}
)

// DialectFor maps a driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, errs.NewNotFoundError("accessor.dialect_for", "no dialect for driver "+strconv.Quote(driver))
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) QuoteIdent(name string) string { return pgx.Identifier{name}.Sanitize() }
func (postgresDialect) Placeholder(n int) string      { return "$" + strconv.Itoa(n) }
func (postgresDialect) Regexp(column, pattern string) string {
	return column + " ~ " + pattern
}
func (postgresDialect) Limit(offset, count string) string {
	return "LIMIT " + count + " OFFSET " + offset
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
func (mysqlDialect) Placeholder(int) string { return "?" }
func (mysqlDialect) Regexp(column, pattern string) string {
	return column + " REGEXP " + pattern
}
func (mysqlDialect) Limit(offset, count string) string {
	return "LIMIT " + offset + ", " + count
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return "sqlite" }
func (sqliteDialect) QuoteIdent(name string) string { return pgx.Identifier{name}.Sanitize() }
func (sqliteDialect) Placeholder(int) string        { return "?" }
func (sqliteDialect) Regexp(column, pattern string) string {
	return column + " REGEXP " + pattern
}
func (sqliteDialect) Limit(offset, count string) string {
	return "LIMIT " + offset + ", " + count
}
