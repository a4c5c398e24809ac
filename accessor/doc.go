// Package accessor is a small table accessor over an already-open SQL
// handle.
//
// Callers register tables (name, primary key, declared columns) on an
// Accessor and select one with UseTable, which returns an immutable
// *Table scoped to that definition. Every CRUD operation is a method on
// the *Table, so one Accessor can be shared by concurrent callers.
//
//	acc := accessor.New(db, accessor.SQLite)
//	if err := acc.DefineTable("users", "id", "id", "username", "password_hash"); err != nil {
//		return err
//	}
//	users, err := acc.UseTable("users")
//	if err != nil {
//		return err
//	}
//	ok, err := users.Create(ctx, accessor.Values{
//		"id":       accessor.Int(1),
//		"username": accessor.Text("bob"),
//	})
//
// Values are always bound as statement parameters. Table and column
// names are always quoted by the Dialect, never bound.
//
// The accessor does not open, pool or close connections and does not
// manage transactions: pass a *sql.Tx as the Handle to run operations
// inside one.
package accessor
