package accessor

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/deppfellow/go-absl/internal/validation"
	"github.com/rs/zerolog"
)

// DefaultPageRowCount is the page size used by Paginate unless overridden.
const DefaultPageRowCount = 10

// Handle is the already-open database the accessor runs statements on.
// *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type Handle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TableDefinition describes a registered table.
type TableDefinition struct {
	Name       string   `json:"name" validate:"required"`
	PrimaryKey string   `json:"primary_key" validate:"required"`
	Columns    []string `json:"columns" validate:"min=1,dive,required"`
}

func (d TableDefinition) clone() TableDefinition {
	d.Columns = slices.Clone(d.Columns)
	return d
}

// Accessor holds the table registry and the handle statements run on.
// It is safe for concurrent use when the Handle is.
type Accessor struct {
	handle       Handle
	dialect      Dialect
	logger       zerolog.Logger
	pageRowCount int
	escapeHTML   bool
	slowQuery    time.Duration

	mu     sync.RWMutex
	tables map[string]TableDefinition
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithLogger sets the logger statements are traced to. Statements log at
// debug; statements slower than the slow-query threshold log at warn.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Accessor) {
		a.logger = logger
	}
}

// WithPageRowCount sets the default page size of every Table. Values
// below 1 are ignored.
func WithPageRowCount(n int) Option {
	return func(a *Accessor) {
		if n >= 1 {
			a.pageRowCount = n
		}
	}
}

// WithHTMLEscape entity-encodes every bound text value (< > & ' ") before
// it reaches the database. Off by default: bound parameters are already
// safe for SQL, and encoding at rest alters the stored data.
func WithHTMLEscape(enabled bool) Option {
	return func(a *Accessor) {
		a.escapeHTML = enabled
	}
}

// WithSlowQueryThreshold sets the duration above which statements log at warn.
// Zero disables the warning.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(a *Accessor) {
		a.slowQuery = d
	}
}

// New creates an Accessor over handle, rendering SQL for dialect.
func New(handle Handle, dialect Dialect, opts ...Option) *Accessor {
	a := &Accessor{
		handle:       handle,
		dialect:      dialect,
		logger:       zerolog.Nop(),
		pageRowCount: DefaultPageRowCount,
		tables:       map[string]TableDefinition{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dialect returns the dialect statements are rendered for.
func (a *Accessor) Dialect() Dialect {
	return a.dialect
}

// DefineTable registers (or overwrites) a table definition. Duplicate
// column names are dropped, keeping the first occurrence. Nothing is
// checked against the live database.
func (a *Accessor) DefineTable(name, primaryKey string, columns ...string) error {
	const op = "accessor.define_table"

	def := TableDefinition{Name: name, PrimaryKey: primaryKey}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		def.Columns = append(def.Columns, c)
	}

	if err := validation.Struct(op, def); err != nil {
		return err
	}

	a.mu.Lock()
	a.tables[name] = def
	a.mu.Unlock()

	a.logger.Debug().
		Str("table", name).
		Str("primary_key", primaryKey).
		Strs("columns", def.Columns).
		Msg("table defined")
	return nil
}

// Definition returns a copy of the named table's definition.
func (a *Accessor) Definition(name string) (TableDefinition, error) {
	a.mu.RLock()
	def, ok := a.tables[name]
	a.mu.RUnlock()
	if !ok {
		return TableDefinition{}, errs.NewNotFoundError("accessor.definition", "table "+name+" is not defined")
	}
	return def.clone(), nil
}

// Tables lists the registered table names in sorted order.
func (a *Accessor) Tables() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.tables))
	for name := range a.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UseTable returns a Table scoped to the named definition. The Table
// keeps its own copy, so later redefinitions do not affect it.
func (a *Accessor) UseTable(name string) (*Table, error) {
	a.mu.RLock()
	def, ok := a.tables[name]
	a.mu.RUnlock()
	if !ok {
		return nil, errs.NewNotFoundError("accessor.use_table", "table "+name+" is not defined")
	}
	return newTable(a, def.clone()), nil
}

// trace logs one executed statement.
func (a *Accessor) trace(stmt *statement, table string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)

	// Failures are returned to the caller; they are only traced here.
	event := a.logger.Debug().Err(err)
	if a.slowQuery > 0 && elapsed > a.slowQuery {
		event = a.logger.Warn().Err(err).Dur("threshold", a.slowQuery)
	}

	event.
		Str("op", stmt.op).
		Str("table", table).
		Str("dialect", a.dialect.Name()).
		Str("sql", stmt.String()).
		Int("args", len(stmt.args)).
		Int64("rows", rows).
		Dur("duration", elapsed).
		Msg("statement executed")
}
