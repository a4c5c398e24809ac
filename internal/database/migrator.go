package database

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/deppfellow/go-absl/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Migrations are embedded so the binary carries its own schema.
//
//go:embed migrations/*.sql
var migrations embed.FS

// downMarker separates a migration's create section from its drop section.
const downMarker = "---- create above / drop below ----"

// Migrate brings the schema up to date.
//
// Postgres is migrated with tern on a dedicated connection, recording the
// version in schema_version. MySQL and SQLite run the create section of
// every migration in order on db; those migrations are idempotent.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, db *Database) error {
	if cfg.Database.Driver == "postgres" {
		return migratePostgres(ctx, logger, cfg)
	}
	return migrateSequential(ctx, logger, db)
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	conn, err := pgx.Connect(ctx, postgresDSN(&cfg.Database))
	if err != nil {
		return errors.Wrap(err, "connecting for migrations")
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return errors.Wrap(err, "constructing database migrator")
	}

	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "retrieving database migrations subtree")
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return errors.Wrap(err, "loading database migrations")
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving current database migration version")
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

func migrateSequential(ctx context.Context, logger *zerolog.Logger, db *Database) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "listing database migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := migrations.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", name)
		}

		for _, stmt := range upStatements(string(raw)) {
			if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "applying migration %s", path.Base(name))
			}
		}
	}

	logger.Info().Str("driver", db.Driver).Msgf("database schema up to date, %d migrations applied", len(names))
	return nil
}

// upStatements returns the statements of the create section, split on ";".
func upStatements(migration string) []string {
	up, _, _ := strings.Cut(migration, downMarker)

	var statements []string
	for _, stmt := range strings.Split(up, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
