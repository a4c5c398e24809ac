package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
)

// regexpCacheSize bounds the number of compiled patterns kept by regexp().
const regexpCacheSize = 256

var (
	registerOnce sync.Once
	registerErr  error
	patterns     *lru.Cache[string, *regexp.Regexp]
)

// registerRegexp installs regexp(pattern, value) for every SQLite
// connection opened afterwards; SQLite rewrites "x REGEXP y" to
// regexp(y, x).
func registerRegexp() error {
	registerOnce.Do(func() {
		patterns, registerErr = lru.New[string, *regexp.Regexp](regexpCacheSize)
		if registerErr != nil {
			return
		}
		registerErr = sqlite.RegisterDeterministicScalarFunction("regexp", 2, sqliteRegexp)
	})
	return registerErr
}

func sqliteRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}

	pattern := textOf(args[0])
	re, ok := patterns.Get(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		patterns.Add(pattern, compiled)
		re = compiled
	}

	if re.MatchString(textOf(args[1])) {
		return int64(1), nil
	}
	return int64(0), nil
}

func textOf(v driver.Value) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// OpenSQLite opens the SQLite database at path (":memory:" for a private
// in-memory database) with foreign keys enforced and regexp() available.
//
// The handle is limited to one connection: SQLite serializes writers, and
// every connection to ":memory:" would otherwise see its own database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := registerRegexp(); err != nil {
		return nil, errors.Wrap(err, "failed to register sqlite regexp function")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to enable sqlite foreign keys")
	}
	return db, nil
}
