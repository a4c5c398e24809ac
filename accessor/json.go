package accessor

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/internal/errs"
)

// ListJSON is List encoded as a JSON array of objects, keys in column order.
func (t *Table) ListJSON(ctx context.Context, columns ...string) ([]byte, error) {
	rows, err := t.List(ctx, columns...)
	if err != nil {
		return nil, err
	}
	return encodeJSON("accessor.list_json", rows)
}

// FetchJSON is Fetch encoded as a JSON object, or null when no row matches.
func (t *Table) FetchJSON(ctx context.Context, columns []string, where string, whereValue Value) ([]byte, error) {
	row, err := t.Fetch(ctx, columns, where, whereValue)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []byte("null"), nil
	}
	return encodeJSON("accessor.fetch_json", row)
}

// MarshalRows encodes rows the way ListJSON does.
func MarshalRows(rows []*ordereddict.Dict) ([]byte, error) {
	return encodeJSON("accessor.marshal_rows", rows)
}

// MarshalJSON encodes the page with its rows written like ListJSON.
func (p Page) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"page":`)
	buf.WriteString(strconv.Itoa(p.Number))
	buf.WriteString(`,"page_size":`)
	buf.WriteString(strconv.Itoa(p.Size))
	buf.WriteString(`,"total_rows":`)
	buf.WriteString(strconv.FormatInt(p.TotalRows, 10))
	buf.WriteString(`,"total_pages":`)
	buf.WriteString(strconv.Itoa(p.TotalPages))
	buf.WriteString(`,"rows":`)
	rows := p.Rows
	if rows == nil {
		rows = []*ordereddict.Dict{}
	}
	if err := writeJSON(&buf, rows); err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "accessor.paginate", err, "could not encode page: "+err.Error())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON leaves <, > and & unescaped so stored text round-trips.
// Rows are written key by key: ordereddict's own MarshalJSON writes
// null for values it cannot encode, which would hide the failure.
func encodeJSON(op string, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, errs.Wrap(errs.KindSerialization, op, err, "could not encode result: "+err.Error())
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case []*ordereddict.Dict:
		buf.WriteByte('[')
		for i, row := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, row); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case *ordereddict.Dict:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, item := range t.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, item.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	return writeValue(buf, v)
}

func writeValue(buf *bytes.Buffer, v any) error {
	var scratch bytes.Buffer
	enc := json.NewEncoder(&scratch)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(scratch.Bytes(), []byte("\n")))
	return nil
}
