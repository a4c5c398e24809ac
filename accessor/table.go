package accessor

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/deppfellow/go-absl/internal/sqlerr"
)

// Table runs statements against one registered table. A Table is
// immutable; WithPageRowCount returns a modified copy.
type Table struct {
	acc          *Accessor
	def          TableDefinition
	columns      map[string]struct{}
	pageRowCount int
}

func newTable(a *Accessor, def TableDefinition) *Table {
	columns := make(map[string]struct{}, len(def.Columns))
	for _, c := range def.Columns {
		columns[c] = struct{}{}
	}
	return &Table{
		acc:          a,
		def:          def,
		columns:      columns,
		pageRowCount: a.pageRowCount,
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	if t == nil {
		return ""
	}
	return t.def.Name
}

// Definition returns a copy of the table definition.
func (t *Table) Definition() TableDefinition {
	if t == nil {
		return TableDefinition{}
	}
	return t.def.clone()
}

// PageRowCount returns the page size used by Paginate.
func (t *Table) PageRowCount() int {
	if t == nil {
		return 0
	}
	return t.pageRowCount
}

// WithPageRowCount returns a copy of t paginating n rows per page.
// Values below 1 reset to the accessor default.
func (t *Table) WithPageRowCount(n int) *Table {
	if t == nil || t.acc == nil {
		return t
	}
	cp := *t
	cp.pageRowCount = n
	if n < 1 {
		cp.pageRowCount = t.acc.pageRowCount
	}
	return &cp
}

// ready reports a StateError when t was not obtained from UseTable.
func (t *Table) ready(op string) error {
	if t == nil || t.acc == nil || t.def.Name == "" {
		return errs.NewStateError(op, "no table selected: call UseTable first")
	}
	return nil
}

func (t *Table) statement(op string) *statement {
	return newStatement(op, t.acc.dialect, t.acc.escapeHTML)
}

// checkColumns enforces that every key of values is a declared column.
// It returns the keys in sorted order.
func (t *Table) checkColumns(op string, values Values) ([]string, error) {
	keys := make([]string, 0, len(values))
	var unknown []string
	for k := range values {
		if _, ok := t.columns[k]; !ok {
			unknown = append(unknown, k)
		}
		keys = append(keys, k)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errs.NewSchemaMismatchError(op, t.def.Name, unknown)
	}
	sort.Strings(keys)
	return keys, nil
}

func (t *Table) queryRows(ctx context.Context, stmt *statement) ([]*ordereddict.Dict, error) {
	start := time.Now()
	rows, err := t.acc.handle.QueryContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		t.acc.trace(stmt, t.def.Name, start, 0, err)
		return nil, sqlerr.HandleError(stmt.op, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	t.acc.trace(stmt, t.def.Name, start, int64(len(result)), err)
	if err != nil {
		return nil, sqlerr.HandleError(stmt.op, err)
	}
	return result, nil
}

// queryScalar scans the first column of the first row into dest and
// reports whether a row was found.
func (t *Table) queryScalar(ctx context.Context, stmt *statement, dest any) (bool, error) {
	start := time.Now()
	rows, err := t.acc.handle.QueryContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		t.acc.trace(stmt, t.def.Name, start, 0, err)
		return false, sqlerr.HandleError(stmt.op, err)
	}
	defer rows.Close()

	found := rows.Next()
	if found {
		err = rows.Scan(dest)
	}
	if err == nil {
		err = rows.Err()
	}

	var n int64
	if found {
		n = 1
	}
	t.acc.trace(stmt, t.def.Name, start, n, err)
	if err != nil {
		return false, sqlerr.HandleError(stmt.op, err)
	}
	return found, nil
}

func (t *Table) exec(ctx context.Context, stmt *statement) (int64, error) {
	start := time.Now()
	res, err := t.acc.handle.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		t.acc.trace(stmt, t.def.Name, start, 0, err)
		return 0, sqlerr.HandleError(stmt.op, err)
	}
	affected, err := res.RowsAffected()
	t.acc.trace(stmt, t.def.Name, start, affected, err)
	if err != nil {
		return 0, sqlerr.HandleError(stmt.op, err)
	}
	return affected, nil
}

// scanRows reads every row into an ordered dict keyed by column name.
// Raw []byte cells are surfaced as strings.
func scanRows(rows *sql.Rows) ([]*ordereddict.Dict, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []*ordereddict.Dict{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range columns {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := ordereddict.NewDict()
		for i, name := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row.Set(name, value)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// whereClause renders "WHERE <col> = <marker>" after validating both parts.
func (t *Table) whereClause(stmt *statement, where string, value Value) (string, error) {
	col, err := quote(stmt.op, t.acc.dialect, where)
	if err != nil {
		return "", err
	}
	ph, err := stmt.bind(value)
	if err != nil {
		return "", err
	}
	return " WHERE " + col + " = " + ph, nil
}

func missing(checks map[string]bool) []errs.FieldError {
	var fields []errs.FieldError
	for _, name := range []string{"columns", "values", "where", "whereValue"} {
		if bad, ok := checks[name]; ok && bad {
			fields = append(fields, errs.FieldError{Field: name, Error: "is required"})
		}
	}
	return fields
}

// List returns every row, selecting columns or "*" when none are given.
func (t *Table) List(ctx context.Context, columns ...string) ([]*ordereddict.Dict, error) {
	const op = "accessor.list"
	if err := t.ready(op); err != nil {
		return nil, err
	}

	d := t.acc.dialect
	cols, err := quoteList(op, d, columns)
	if err != nil {
		return nil, err
	}
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return nil, err
	}

	stmt := t.statement(op).write("SELECT ", cols, " FROM ", table)
	return t.queryRows(ctx, stmt)
}

// Fetch returns the first row whose where column equals whereValue, or
// nil when none matches. columns, where and whereValue are required.
func (t *Table) Fetch(ctx context.Context, columns []string, where string, whereValue Value) (*ordereddict.Dict, error) {
	const op = "accessor.fetch"
	if err := t.ready(op); err != nil {
		return nil, err
	}

	if fields := missing(map[string]bool{
		"columns":    len(columns) == 0,
		"where":      where == "",
		"whereValue": whereValue.IsEmpty(),
	}); len(fields) > 0 {
		return nil, errs.NewValidationError(op, "missing or empty arguments", fields)
	}

	d := t.acc.dialect
	cols, err := quoteList(op, d, columns)
	if err != nil {
		return nil, err
	}
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return nil, err
	}

	stmt := t.statement(op).write("SELECT ", cols, " FROM ", table)
	clause, err := t.whereClause(stmt, where, whereValue)
	if err != nil {
		return nil, err
	}
	stmt.write(clause, " LIMIT 1")

	rows, err := t.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Get fetches the row whose primary key equals id. With no columns it
// selects every declared column.
func (t *Table) Get(ctx context.Context, id Value, columns ...string) (*ordereddict.Dict, error) {
	if err := t.ready("accessor.get"); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = t.def.Columns
	}
	return t.Fetch(ctx, columns, t.def.PrimaryKey, id)
}

// Create inserts one row. Every key of values must be a declared column;
// declared columns may be omitted. It reports whether a row was inserted.
func (t *Table) Create(ctx context.Context, values Values) (bool, error) {
	const op = "accessor.create"
	if err := t.ready(op); err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, errs.NewValidationError(op, "missing or empty arguments", missing(map[string]bool{"values": true}))
	}

	keys, err := t.checkColumns(op, values)
	if err != nil {
		return false, err
	}

	d := t.acc.dialect
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return false, err
	}

	stmt := t.statement(op)
	cols := make([]string, 0, len(keys))
	marks := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := quote(op, d, k)
		if err != nil {
			return false, err
		}
		ph, err := stmt.bind(values[k])
		if err != nil {
			return false, err
		}
		cols = append(cols, col)
		marks = append(marks, ph)
	}

	stmt.write("INSERT INTO ", table, " (", strings.Join(cols, ", "), ") VALUES (", strings.Join(marks, ", "), ")")
	affected, err := t.exec(ctx, stmt)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Update sets values on every row whose where column equals whereValue
// and returns the number of rows affected. Zero is not an error.
func (t *Table) Update(ctx context.Context, values Values, where string, whereValue Value) (int64, error) {
	const op = "accessor.update"
	if err := t.ready(op); err != nil {
		return 0, err
	}
	if fields := missing(map[string]bool{
		"values":     len(values) == 0,
		"where":      where == "",
		"whereValue": whereValue.IsEmpty(),
	}); len(fields) > 0 {
		return 0, errs.NewValidationError(op, "missing or empty arguments", fields)
	}

	keys, err := t.checkColumns(op, values)
	if err != nil {
		return 0, err
	}

	d := t.acc.dialect
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return 0, err
	}

	stmt := t.statement(op)
	sets := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := quote(op, d, k)
		if err != nil {
			return 0, err
		}
		ph, err := stmt.bind(values[k])
		if err != nil {
			return 0, err
		}
		sets = append(sets, col+" = "+ph)
	}

	// The where value is bound last, after the SET values.
	clause, err := t.whereClause(stmt, where, whereValue)
	if err != nil {
		return 0, err
	}
	stmt.write("UPDATE ", table, " SET ", strings.Join(sets, ", "), clause)
	return t.exec(ctx, stmt)
}

// Delete removes every row whose where column equals whereValue and
// returns the number of rows affected.
func (t *Table) Delete(ctx context.Context, where string, whereValue Value) (int64, error) {
	const op = "accessor.delete"
	if err := t.ready(op); err != nil {
		return 0, err
	}
	if fields := missing(map[string]bool{
		"where":      where == "",
		"whereValue": whereValue.IsEmpty(),
	}); len(fields) > 0 {
		return 0, errs.NewValidationError(op, "missing or empty arguments", fields)
	}

	table, err := quote(op, t.acc.dialect, t.def.Name)
	if err != nil {
		return 0, err
	}

	stmt := t.statement(op)
	clause, err := t.whereClause(stmt, where, whereValue)
	if err != nil {
		return 0, err
	}
	stmt.write("DELETE FROM ", table, clause)
	return t.exec(ctx, stmt)
}
