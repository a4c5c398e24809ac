package accessor

import (
	"context"
	"database/sql"
	"html"
	"regexp"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// Credential is one positional authenticate argument: a column and the
// value supplied for it.
type Credential struct {
	Column string
	Value  Value
}

// Page is one page of a paginated listing.
type Page struct {
	Number     int                 `json:"page"`
	Size       int                 `json:"page_size"`
	TotalRows  int64               `json:"total_rows"`
	TotalPages int                 `json:"total_pages"`
	Rows       []*ordereddict.Dict `json:"rows"`
}

// Authenticate looks up the row whose identity column equals the first
// credential and verifies the second credential against the bcrypt hash
// stored in its column. Exactly two credentials are required.
//
// A missing row, a stored value that is not a bcrypt hash, and a wrong
// secret all report false with a nil error.
func (t *Table) Authenticate(ctx context.Context, creds ...Credential) (bool, error) {
	const op = "accessor.authenticate"
	if err := t.ready(op); err != nil {
		return false, err
	}
	if len(creds) != 2 {
		return false, errs.New(errs.KindValidation, op, "exactly two credentials are required, got %d", len(creds))
	}

	identity, secret := creds[0], creds[1]
	if fields := missing(map[string]bool{
		"where":      identity.Column == "" || secret.Column == "",
		"whereValue": identity.Value.IsEmpty(),
	}); len(fields) > 0 {
		return false, errs.NewValidationError(op, "missing or empty arguments", fields)
	}

	d := t.acc.dialect
	secretCol, err := quote(op, d, secret.Column)
	if err != nil {
		return false, err
	}
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return false, err
	}

	stmt := t.statement(op).write("SELECT ", secretCol, " FROM ", table)
	clause, err := t.whereClause(stmt, identity.Column, identity.Value)
	if err != nil {
		return false, err
	}
	stmt.write(clause, " LIMIT 1")

	// Scanning into any keeps non-string stored values from failing the scan.
	var stored any
	found, err := t.queryScalar(ctx, stmt, &stored)
	if err != nil || !found {
		return false, err
	}

	var hash []byte
	switch h := stored.(type) {
	case string:
		hash = []byte(h)
	case []byte:
		hash = h
	default:
		return false, nil
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(plain(secret.Value))) == nil, nil
}

// plain returns the raw text of a secret. Secrets are compared, never
// stored, so they skip HTML escaping.
func plain(v Value) string {
	if v.kind == KindText {
		return v.s
	}
	return v.String()
}

// CheckDuplicate reports whether any row has column equal to value.
func (t *Table) CheckDuplicate(ctx context.Context, column string, value Value) (bool, error) {
	const op = "accessor.check_duplicate"
	if err := t.ready(op); err != nil {
		return false, err
	}
	if fields := missing(map[string]bool{
		"where":      column == "",
		"whereValue": value.Kind() == KindNull,
	}); len(fields) > 0 {
		return false, errs.NewValidationError(op, "missing or empty arguments", fields)
	}

	table, err := quote(op, t.acc.dialect, t.def.Name)
	if err != nil {
		return false, err
	}

	stmt := t.statement(op).write("SELECT 1 FROM ", table)
	clause, err := t.whereClause(stmt, column, value)
	if err != nil {
		return false, err
	}
	stmt.write(clause, " LIMIT 1")

	var one sql.NullInt64
	return t.queryScalar(ctx, stmt, &one)
}

// inlineFlags matches an unescaped (?flags) or (?flags: group.
var inlineFlags = regexp.MustCompile(`(^|[^\\])(\\\\)*\(\?[imsU-]+[:)]`)

// Search returns the declared columns of every row whose inColumn
// matches pattern anchored at the start. The pattern is a regular
// expression and is bound as a parameter.
//
// The pattern runs on the database's own engine (POSIX ARE on postgres,
// ICU on mysql, Go's RE2 on sqlite), so keep to the syntax they share:
// literals, classes, anchors, alternation and repetition. Inline flag
// groups such as (?i) are rejected. With HTML escaping enabled the
// pattern is escaped like stored text before it is bound.
func (t *Table) Search(ctx context.Context, pattern, inColumn string) ([]*ordereddict.Dict, error) {
	const op = "accessor.search"
	if err := t.ready(op); err != nil {
		return nil, err
	}
	if inColumn == "" {
		return nil, errs.NewValidationError(op, "missing or empty arguments", missing(map[string]bool{"where": true}))
	}

	if inlineFlags.MatchString(pattern) {
		return nil, errs.NewValidationError(op, "invalid search pattern", []errs.FieldError{{Field: "pattern", Error: "inline flag groups are not supported"}})
	}
	if t.acc.escapeHTML {
		pattern = html.EscapeString(pattern)
	}
	anchored := "^" + pattern
	if _, err := regexp.Compile(anchored); err != nil {
		return nil, errs.NewValidationError(op, "invalid search pattern", []errs.FieldError{{Field: "pattern", Error: err.Error()}})
	}

	d := t.acc.dialect
	cols, err := quoteList(op, d, t.def.Columns)
	if err != nil {
		return nil, err
	}
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return nil, err
	}
	col, err := quote(op, d, inColumn)
	if err != nil {
		return nil, err
	}

	stmt := t.statement(op).write("SELECT ", cols, " FROM ", table, " WHERE ")
	stmt.write(d.Regexp(col, stmt.bindRaw(anchored)))
	return t.queryRows(ctx, stmt)
}

// Count returns the number of rows in the table.
func (t *Table) Count(ctx context.Context) (int64, error) {
	const op = "accessor.count"
	if err := t.ready(op); err != nil {
		return 0, err
	}
	return t.count(ctx, op)
}

func (t *Table) count(ctx context.Context, op string) (int64, error) {
	table, err := quote(op, t.acc.dialect, t.def.Name)
	if err != nil {
		return 0, err
	}

	stmt := t.statement(op).write("SELECT COUNT(*) FROM ", table)
	var total int64
	if _, err := t.queryScalar(ctx, stmt, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// Paginate returns page number (1-based) of the table ordered by its
// primary key, selecting columns or "*". Out-of-range page numbers are
// clamped to the first or last page.
func (t *Table) Paginate(ctx context.Context, number int, columns ...string) (*Page, error) {
	const op = "accessor.paginate"
	if err := t.ready(op); err != nil {
		return nil, err
	}

	total, err := t.count(ctx, op)
	if err != nil {
		return nil, err
	}

	size := t.pageRowCount
	pages := int((total + int64(size) - 1) / int64(size))
	number = max(1, min(number, pages))
	offset := (number - 1) * size

	d := t.acc.dialect
	cols, err := quoteList(op, d, columns)
	if err != nil {
		return nil, err
	}
	table, err := quote(op, d, t.def.Name)
	if err != nil {
		return nil, err
	}
	pk, err := quote(op, d, t.def.PrimaryKey)
	if err != nil {
		return nil, err
	}

	stmt := t.statement(op).write("SELECT ", cols, " FROM ", table, " ORDER BY ", pk, " ")
	// "?" markers are positional, so the offset is always bound first.
	off := stmt.bindRaw(offset)
	stmt.write(d.Limit(off, stmt.bindRaw(size)))

	rows, err := t.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return &Page{
		Number:     number,
		Size:       size,
		TotalRows:  total,
		TotalPages: pages,
		Rows:       rows,
	}, nil
}
