package accessor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// recordingHandle records every statement before passing it on.
type recordingHandle struct {
	Handle

	mu      sync.Mutex
	queries []string
}

func (h *recordingHandle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	h.record(query)
	return h.Handle.ExecContext(ctx, query, args...)
}

func (h *recordingHandle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	h.record(query)
	return h.Handle.QueryContext(ctx, query, args...)
}

func (h *recordingHandle) record(query string) {
	h.mu.Lock()
	h.queries = append(h.queries, query)
	h.mu.Unlock()
}

func (h *recordingHandle) reset() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := h.queries
	h.queries = nil
	return q
}

const schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT,
	name TEXT
);
CREATE TABLE items (
	a INTEGER,
	b TEXT,
	c TEXT DEFAULT 'dflt'
);
CREATE TABLE "we""ird" (
	"id" INTEGER PRIMARY KEY,
	"col""umn" TEXT
);
`

type AccessorSuite struct {
	suite.Suite

	ctx    context.Context
	db     *sql.DB
	handle *recordingHandle
	acc    *Accessor
}

func TestAccessorSuite(t *testing.T) {
	suite.Run(t, new(AccessorSuite))
}

func (s *AccessorSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.OpenSQLite(s.ctx, ":memory:")
	s.Require().NoError(err)
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			_, err = db.ExecContext(s.ctx, stmt)
			s.Require().NoError(err)
		}
	}
	s.db = db

	s.handle = &recordingHandle{Handle: db}
	s.acc = New(s.handle, SQLite)
	s.Require().NoError(s.acc.DefineTable("users", "id", "id", "username", "password_hash", "name"))
	s.Require().NoError(s.acc.DefineTable("items", "a", "a", "b", "c"))
	s.Require().NoError(s.acc.DefineTable(`we"ird`, "id", "id", `col"umn`))
}

func (s *AccessorSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *AccessorSuite) table(name string) *Table {
	t, err := s.acc.UseTable(name)
	s.Require().NoError(err)
	return t
}

func (s *AccessorSuite) seedUser(id int64, username, secret string) {
	hash, err := HashSecret(secret)
	s.Require().NoError(err)
	ok, err := s.table("users").Create(s.ctx, Values{
		"id":            Int(id),
		"username":      Text(username),
		"password_hash": Text(hash),
	})
	s.Require().NoError(err)
	s.Require().True(ok)
}

func (s *AccessorSuite) TestListQueriesOnlySelectedTable() {
	s.seedUser(1, "bob", "hunter2")
	_, err := s.table("items").Create(s.ctx, Values{"a": Int(1)})
	s.Require().NoError(err)
	s.handle.reset()

	rows, err := s.table("users").List(s.ctx)
	s.Require().NoError(err)
	s.Len(rows, 1)

	queries := s.handle.reset()
	s.Require().Len(queries, 1)
	s.Equal(`SELECT * FROM "users"`, queries[0])
}

func (s *AccessorSuite) TestListSelectsColumnsInOrder() {
	s.seedUser(1, "bob", "hunter2")

	rows, err := s.table("users").List(s.ctx, "username", "id")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal([]string{"username", "id"}, rows[0].Keys())
}

func (s *AccessorSuite) TestListEmptyTable() {
	rows, err := s.table("items").List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *AccessorSuite) TestUseTableUnregistered() {
	_, err := s.acc.UseTable("ghosts")
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNotFound))
	s.Empty(s.handle.reset())

	// Tables obtained earlier are unaffected.
	_, err = s.table("users").List(s.ctx)
	s.NoError(err)
}

func (s *AccessorSuite) TestOperationsWithoutTable() {
	var t *Table

	_, err := t.List(s.ctx)
	s.True(errors.Is(err, ErrState))
	_, err = t.Create(s.ctx, Values{"a": Int(1)})
	s.True(errors.Is(err, ErrState))
	_, err = (&Table{}).Paginate(s.ctx, 1)
	s.True(errors.Is(err, ErrState))
	_, err = t.Authenticate(s.ctx)
	s.True(errors.Is(err, ErrState))
	s.Empty(s.handle.reset())
}

func (s *AccessorSuite) TestCreateRejectsUnknownColumns() {
	t := s.table("items")

	_, err := t.Create(s.ctx, Values{"a": Int(1), "zzz": Text("x")})
	s.Require().Error(err)
	s.True(errors.Is(err, ErrSchemaMismatch))

	var appErr *Error
	s.Require().True(errors.As(err, &appErr))
	s.Require().Len(appErr.Fields, 1)
	s.Equal("zzz", appErr.Fields[0].Field)

	_, err = t.Update(s.ctx, Values{"nope": Int(2)}, "a", Int(1))
	s.True(errors.Is(err, ErrSchemaMismatch))

	s.Empty(s.handle.reset(), "no statement may run on a schema mismatch")
}

func (s *AccessorSuite) TestCreateSubsetOfColumns() {
	t := s.table("items")

	ok, err := t.Create(s.ctx, Values{"a": Int(1), "b": Text("x")})
	s.Require().NoError(err)
	s.True(ok)

	row, err := t.Fetch(s.ctx, []string{"a", "b", "c"}, "a", Int(1))
	s.Require().NoError(err)
	s.Require().NotNil(row)

	a, _ := row.Get("a")
	b, _ := row.Get("b")
	c, _ := row.Get("c")
	s.Equal(int64(1), a)
	s.Equal("x", b)
	s.Equal("dflt", c)
}

func (s *AccessorSuite) TestCreateRequiresValues() {
	_, err := s.table("items").Create(s.ctx, Values{})
	s.True(errors.Is(err, ErrValidation))
}

func (s *AccessorSuite) TestCreateBindsKinds() {
	t := s.table("items")

	_, err := t.Create(s.ctx, Values{"a": Int(7), "b": JSON(map[string]any{"k": []int{1, 2}}), "c": Null()})
	s.Require().NoError(err)

	row, err := t.Fetch(s.ctx, []string{"b", "c"}, "a", Int(7))
	s.Require().NoError(err)
	b, _ := row.Get("b")
	c, _ := row.Get("c")
	s.JSONEq(`{"k":[1,2]}`, b.(string))
	s.Nil(c)
}

func (s *AccessorSuite) TestCreateDuplicateIsQueryExecution() {
	s.seedUser(1, "bob", "hunter2")

	_, err := s.table("users").Create(s.ctx, Values{"id": Int(2), "username": Text("bob")})
	s.Require().Error(err)
	s.True(errors.Is(err, ErrQueryExecution))

	var appErr *Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal("USER_ALREADY_EXISTS", appErr.Code)
	s.Equal("accessor.create", appErr.Op)
	s.NotContains(appErr.Message, "constraint failed")
}

func (s *AccessorSuite) TestUpdateReturnsAffectedRows() {
	s.seedUser(5, "bob", "hunter2")
	t := s.table("users")

	n, err := t.Update(s.ctx, Values{"name": Text("Bob")}, "id", Text("5"))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = t.Update(s.ctx, Values{"name": Text("Bob")}, "id", Int(6))
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	row, err := t.Get(s.ctx, Int(5), "name")
	s.Require().NoError(err)
	name, _ := row.Get("name")
	s.Equal("Bob", name)
}

func (s *AccessorSuite) TestUpdateAndDeleteRequireWhere() {
	t := s.table("users")

	_, err := t.Update(s.ctx, Values{"name": Text("x")}, "", Int(1))
	s.True(errors.Is(err, ErrValidation))
	_, err = t.Update(s.ctx, Values{"name": Text("x")}, "id", Text(""))
	s.True(errors.Is(err, ErrValidation))
	_, err = t.Delete(s.ctx, "id", Null())
	s.True(errors.Is(err, ErrValidation))
	_, err = t.Fetch(s.ctx, nil, "id", Int(1))
	s.True(errors.Is(err, ErrValidation))
	s.Empty(s.handle.reset())
}

func (s *AccessorSuite) TestDelete() {
	s.seedUser(1, "bob", "a")
	s.seedUser(2, "ann", "b")
	t := s.table("users")

	n, err := t.Delete(s.ctx, "username", Text("bob"))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	total, err := t.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *AccessorSuite) TestFetchMissingRow() {
	t := s.table("users")

	row, err := t.Fetch(s.ctx, []string{"id"}, "username", Text("nobody"))
	s.Require().NoError(err)
	s.Nil(row)

	out, err := t.FetchJSON(s.ctx, []string{"id"}, "username", Text("nobody"))
	s.Require().NoError(err)
	s.Equal("null", string(out))

	s.Contains(s.handle.reset()[0], "LIMIT 1")
}

func (s *AccessorSuite) TestGetSelectsDeclaredColumns() {
	s.seedUser(3, "carol", "pw")

	row, err := s.table("users").Get(s.ctx, Int(3))
	s.Require().NoError(err)
	s.Equal([]string{"id", "username", "password_hash", "name"}, row.Keys())
}

func (s *AccessorSuite) TestAuthenticate() {
	s.seedUser(1, "bob", "correct horse")
	t := s.table("users")
	s.handle.reset()

	ok, err := t.Authenticate(s.ctx,
		Credential{Column: "username", Value: Text("bob")},
		Credential{Column: "password_hash", Value: Text("wrongsecret")},
	)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = t.Authenticate(s.ctx,
		Credential{Column: "username", Value: Text("bob")},
		Credential{Column: "password_hash", Value: Text("correct horse")},
	)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = t.Authenticate(s.ctx,
		Credential{Column: "username", Value: Text("nobody")},
		Credential{Column: "password_hash", Value: Text("correct horse")},
	)
	s.Require().NoError(err)
	s.False(ok)

	s.Equal(`SELECT "password_hash" FROM "users" WHERE "username" = ? LIMIT 1`, s.handle.reset()[0])
}

func (s *AccessorSuite) TestAuthenticateUnverifiableHash() {
	t := s.table("users")
	_, err := t.Create(s.ctx, Values{"id": Int(1), "username": Text("plain"), "password_hash": Text("not-a-hash")})
	s.Require().NoError(err)
	_, err = t.Create(s.ctx, Values{"id": Int(2), "username": Text("nohash")})
	s.Require().NoError(err)

	for _, username := range []string{"plain", "nohash"} {
		ok, err := t.Authenticate(s.ctx,
			Credential{Column: "username", Value: Text(username)},
			Credential{Column: "password_hash", Value: Text("not-a-hash")},
		)
		s.Require().NoError(err)
		s.False(ok, username)
	}
}

func (s *AccessorSuite) TestAuthenticateRequiresTwoCredentials() {
	t := s.table("users")
	cred := Credential{Column: "username", Value: Text("bob")}

	_, err := t.Authenticate(s.ctx, cred, cred, cred)
	s.True(errors.Is(err, ErrValidation))
	_, err = t.Authenticate(s.ctx, cred)
	s.True(errors.Is(err, ErrValidation))
	s.Empty(s.handle.reset())
}

func (s *AccessorSuite) TestSearch() {
	s.seedUser(1, "alice", "x")
	s.seedUser(2, "albert", "x")
	s.seedUser(3, "bob", "x")
	s.handle.reset()

	rows, err := s.table("users").Search(s.ctx, "al", "username")
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal([]string{"id", "username", "password_hash", "name"}, rows[0].Keys())

	query := s.handle.reset()[0]
	s.Equal(`SELECT "id", "username", "password_hash", "name" FROM "users" WHERE "username" REGEXP ?`, query)
}

func (s *AccessorSuite) TestSearchPatternIsBound() {
	s.seedUser(1, "alice", "x")
	s.handle.reset()

	rows, err := s.table("users").Search(s.ctx, "x' OR '1'='1", "username")
	s.Require().NoError(err)
	s.Empty(rows)
	s.NotContains(s.handle.reset()[0], "OR")
}

func (s *AccessorSuite) TestSearchInvalidPattern() {
	for _, pattern := range []string{"(", "(?i)bo", "b(?i:O)b"} {
		_, err := s.table("users").Search(s.ctx, pattern, "username")
		s.True(errors.Is(err, ErrValidation), pattern)
	}
	s.Empty(s.handle.reset())
}

func (s *AccessorSuite) TestSearchAcceptsEscapedParens() {
	s.seedUser(1, "(?i)x", "pw")
	s.seedUser(2, "bob", "pw")

	rows, err := s.table("users").Search(s.ctx, `\(\?i\)`, "username")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)

	rows, err = s.table("users").Search(s.ctx, "(?:b|c)o", "username")
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *AccessorSuite) TestPaginateClampsPage() {
	t := s.table("items")
	for i := 1; i <= 25; i++ {
		_, err := t.Create(s.ctx, Values{"a": Int(int64(i))})
		s.Require().NoError(err)
	}

	page, err := t.Paginate(s.ctx, 99)
	s.Require().NoError(err)
	s.Equal(3, page.Number)
	s.Equal(3, page.TotalPages)
	s.Equal(int64(25), page.TotalRows)
	s.Require().Len(page.Rows, 5)
	first, _ := page.Rows[0].Get("a")
	s.Equal(int64(21), first)

	page, err = t.Paginate(s.ctx, -4)
	s.Require().NoError(err)
	s.Equal(1, page.Number)
	s.Len(page.Rows, 10)

	page, err = t.WithPageRowCount(7).Paginate(s.ctx, 2, "a")
	s.Require().NoError(err)
	s.Equal(7, page.Size)
	s.Equal(4, page.TotalPages)
	s.Require().Len(page.Rows, 7)
	first, _ = page.Rows[0].Get("a")
	s.Equal(int64(8), first)
}

func (s *AccessorSuite) TestPaginateEmptyTable() {
	page, err := s.table("items").Paginate(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(1, page.Number)
	s.Equal(0, page.TotalPages)
	s.Empty(page.Rows)
}

func (s *AccessorSuite) TestCheckDuplicate() {
	s.seedUser(1, "bob", "x")
	t := s.table("users")
	s.handle.reset()

	dup, err := t.CheckDuplicate(s.ctx, "username", Text("bob"))
	s.Require().NoError(err)
	s.True(dup)

	dup, err = t.CheckDuplicate(s.ctx, "username", Text("eve"))
	s.Require().NoError(err)
	s.False(dup)

	_, err = t.CheckDuplicate(s.ctx, "username", Null())
	s.True(errors.Is(err, ErrValidation))

	s.Contains(s.handle.reset()[0], "SELECT 1 FROM")
}

func (s *AccessorSuite) TestListJSONRoundTrip() {
	t := s.table("items")
	_, err := t.Create(s.ctx, Values{"a": Int(1), "b": Text(`<b>"Tom" & 'Jerry'</b>`)})
	s.Require().NoError(err)
	_, err = t.Create(s.ctx, Values{"a": Int(2), "b": Text("plain")})
	s.Require().NoError(err)

	out, err := t.ListJSON(s.ctx, "a", "b")
	s.Require().NoError(err)
	s.Contains(string(out), `<b>`, "output is not HTML-escaped")

	var decoded []map[string]any
	s.Require().NoError(json.Unmarshal(out, &decoded))

	rows, err := t.List(s.ctx, "a", "b")
	s.Require().NoError(err)
	s.Require().Len(decoded, len(rows))
	for i, row := range rows {
		a, _ := row.Get("a")
		b, _ := row.Get("b")
		s.Equal(float64(a.(int64)), decoded[i]["a"])
		s.Equal(b, decoded[i]["b"])
	}
}

func (s *AccessorSuite) TestHTMLEscapeOption() {
	acc := New(s.db, SQLite, WithHTMLEscape(true))
	s.Require().NoError(acc.DefineTable("items", "a", "a", "b", "c"))
	t, err := acc.UseTable("items")
	s.Require().NoError(err)

	_, err = t.Create(s.ctx, Values{"a": Int(1), "b": Text(`<i>&</i>`)})
	s.Require().NoError(err)

	// Where values are escaped the same way, so lookups still match.
	row, err := t.Fetch(s.ctx, []string{"b"}, "b", Text(`<i>&</i>`))
	s.Require().NoError(err)
	s.Require().NotNil(row)
	b, _ := row.Get("b")
	s.Equal("&lt;i&gt;&amp;&lt;/i&gt;", b)
}

func (s *AccessorSuite) TestHTMLEscapeAppliesToSearch() {
	acc := New(s.db, SQLite, WithHTMLEscape(true))
	s.Require().NoError(acc.DefineTable("users", "id", "id", "username", "password_hash", "name"))
	t, err := acc.UseTable("users")
	s.Require().NoError(err)

	_, err = t.Create(s.ctx, Values{"id": Int(1), "username": Text("Tom & Jerry")})
	s.Require().NoError(err)

	dup, err := t.CheckDuplicate(s.ctx, "username", Text("Tom & Jerry"))
	s.Require().NoError(err)
	s.True(dup)

	rows, err := t.Search(s.ctx, "Tom & J", "username")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	name, _ := rows[0].Get("username")
	s.Equal("Tom &amp; Jerry", name)
}

func (s *AccessorSuite) TestNonFiniteFloatIsSerializationError() {
	_, err := s.db.ExecContext(s.ctx, `CREATE TABLE measures (id INTEGER PRIMARY KEY, v REAL)`)
	s.Require().NoError(err)
	s.Require().NoError(s.acc.DefineTable("measures", "id", "id", "v"))
	m := s.table("measures")

	_, err = m.Create(s.ctx, Values{"id": Int(1), "v": Float(math.Inf(1))})
	s.Require().NoError(err)

	rows, err := m.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	v, _ := rows[0].Get("v")
	s.True(math.IsInf(v.(float64), 1))

	_, err = m.ListJSON(s.ctx)
	s.True(errors.Is(err, ErrSerialization), "got %v", err)

	_, err = m.FetchJSON(s.ctx, nil, "id", Int(1))
	s.True(errors.Is(err, ErrSerialization), "got %v", err)
}

func (s *AccessorSuite) TestQuotedIdentifiers() {
	t := s.table(`we"ird`)

	ok, err := t.Create(s.ctx, Values{"id": Int(1), `col"umn`: Text("v")})
	s.Require().NoError(err)
	s.True(ok)

	rows, err := t.List(s.ctx, `col"umn`)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	v, _ := rows[0].Get(`col"umn`)
	s.Equal("v", v)

	queries := s.handle.reset()
	s.Equal(`SELECT "col""umn" FROM "we""ird"`, queries[len(queries)-1])
}

func (s *AccessorSuite) TestRejectsNULIdentifier() {
	_, err := s.table("users").List(s.ctx, "id\x00")
	s.True(errors.Is(err, ErrValidation))
}

func (s *AccessorSuite) TestMissingTableIsQueryExecution() {
	s.Require().NoError(s.acc.DefineTable("ghosts", "id", "id"))

	_, err := s.table("ghosts").List(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrQueryExecution))

	var appErr *Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal("The requested table does not exist", appErr.Message)
}

func (s *AccessorSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.table("users").List(ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, context.Canceled))
	s.True(errors.Is(err, ErrQueryExecution))
}

func TestDefineTable(t *testing.T) {
	acc := New(nil, SQLite)

	require.NoError(t, acc.DefineTable("users", "id", "id", "name", "id"))
	def, err := acc.Definition("users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, def.Columns)

	// Copies handed out are independent of the registry.
	def.Columns[0] = "changed"
	again, err := acc.Definition("users")
	require.NoError(t, err)
	assert.Equal(t, "id", again.Columns[0])

	require.NoError(t, acc.DefineTable("users", "uid", "uid"))
	def, err = acc.Definition("users")
	require.NoError(t, err)
	assert.Equal(t, "uid", def.PrimaryKey)

	require.NoError(t, acc.DefineTable("books", "isbn", "isbn"))
	assert.Equal(t, []string{"books", "users"}, acc.Tables())
}

func TestDefineTableValidation(t *testing.T) {
	acc := New(nil, SQLite)

	for _, tc := range []struct {
		name, pk string
		columns  []string
	}{
		{"", "id", []string{"id"}},
		{"users", "", []string{"id"}},
		{"users", "id", nil},
		{"users", "id", []string{""}},
	} {
		err := acc.DefineTable(tc.name, tc.pk, tc.columns...)
		assert.True(t, errors.Is(err, ErrValidation), "%+v", tc)
	}
	assert.Empty(t, acc.Tables())
}

func TestUseTableSnapshot(t *testing.T) {
	acc := New(nil, SQLite, WithPageRowCount(4))
	require.NoError(t, acc.DefineTable("users", "id", "id", "name"))

	tbl, err := acc.UseTable("users")
	require.NoError(t, err)
	require.NoError(t, acc.DefineTable("users", "id", "id"))

	assert.Equal(t, []string{"id", "name"}, tbl.Definition().Columns)
	assert.Equal(t, 4, tbl.PageRowCount())
	assert.Equal(t, 9, tbl.WithPageRowCount(9).PageRowCount())
	assert.Equal(t, 4, tbl.WithPageRowCount(0).PageRowCount())
	assert.Equal(t, 4, tbl.PageRowCount(), "WithPageRowCount returns a copy")
}

func TestEncodeJSONFailure(t *testing.T) {
	_, err := encodeJSON("accessor.list_json", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSerialization))

	row := ordereddict.NewDict().Set("id", int64(1)).Set("bad", make(chan int))
	_, err = encodeJSON("accessor.fetch_json", row)
	assert.True(t, errors.Is(err, ErrSerialization))
}

func TestEncodeJSONRows(t *testing.T) {
	rows := []*ordereddict.Dict{
		ordereddict.NewDict().Set("b", "<b>&</b>").Set("a", int64(1)),
		ordereddict.NewDict().Set("b", nil).Set("a", 2.5),
	}
	out, err := encodeJSON("accessor.list_json", rows)
	require.NoError(t, err)
	assert.Equal(t, `[{"b":"<b>&</b>","a":1},{"b":null,"a":2.5}]`, string(out))

	out, err = encodeJSON("accessor.list_json", []*ordereddict.Dict{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))

	out, err = MarshalRows(rows[:1])
	require.NoError(t, err)
	assert.Equal(t, `[{"b":"<b>&</b>","a":1}]`, string(out))
}

func TestPageMarshalJSON(t *testing.T) {
	page := Page{Number: 2, Size: 1, TotalRows: 3, TotalPages: 3, Rows: []*ordereddict.Dict{
		ordereddict.NewDict().Set("a", int64(2)).Set("b", "x & y"),
	}}
	out, err := page.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"page":2,"page_size":1,"total_rows":3,"total_pages":3,"rows":[{"a":2,"b":"x & y"}]}`, string(out))

	out, err = Page{Number: 1}.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"rows":[]`)

	page.Rows[0].Set("b", math.Inf(-1))
	_, err = page.MarshalJSON()
	assert.True(t, errors.Is(err, ErrSerialization))
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = HashSecret("")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = HashSecret(strings.Repeat("x", 73))
	assert.True(t, errors.Is(err, ErrValidation))
}
