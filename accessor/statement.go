package accessor

import (
	"strings"

	"github.com/deppfellow/go-absl/internal/errs"
)

// statement accumulates SQL text and its bound arguments.
type statement struct {
	op         string
	dialect    Dialect
	escapeHTML bool
	sql        strings.Builder
	args       []any
}

func newStatement(op string, d Dialect, escapeHTML bool) *statement {
	return &statement{op: op, dialect: d, escapeHTML: escapeHTML}
}

func (s *statement) write(parts ...string) *statement {
	for _, p := range parts {
		s.sql.WriteString(p)
	}
	return s
}

// bind adds v as the next argument and returns its marker.
func (s *statement) bind(v Value) (string, error) {
	arg, err := v.bind(s.op, s.escapeHTML)
	if err != nil {
		return "", err
	}
	return s.bindRaw(arg), nil
}

// bindRaw adds an already converted argument (LIMIT bounds, patterns).
func (s *statement) bindRaw(arg any) string {
	s.args = append(s.args, arg)
	return s.dialect.Placeholder(len(s.args))
}

func (s *statement) String() string {
	return s.sql.String()
}

// quote validates and quotes one identifier.
func quote(op string, d Dialect, name string) (string, error) {
	if name == "" {
		return "", errs.NewValidationError(op, "identifier must not be empty", nil)
	}
	if strings.ContainsRune(name, 0) {
		return "", errs.NewValidationError(op, "identifier must not contain NUL", []errs.FieldError{{Field: name, Error: "contains NUL"}})
	}
	return d.QuoteIdent(name), nil
}

// quoteList quotes columns and joins them with ", ". An empty list yields "*".
func quoteList(op string, d Dialect, columns []string) (string, error) {
	if len(columns) == 0 {
		return "*", nil
	}
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		q, err := quote(op, d, c)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, ", "), nil
}
