// internal/adapters/db/schema.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrSchemaOutdated is returned when the database lags the migrations
// compiled into the binary.
var ErrSchemaOutdated = errors.New("database schema is outdated")

// SchemaState is the row golang-migrate keeps in its bookkeeping table.
type SchemaState struct {
	Version uint
	Dirty   bool
}

// SchemaVersion reads the applied migration version. A database that has
// never been migrated reports version 0.
func SchemaVersion(ctx context.Context, sqlDB *sql.DB, schema, table string) (SchemaState, error) {
	if schema == "" {
		schema = "public"
	}
	if table == "" {
		table = "schema_migrations"
	}

	query := "SELECT version, dirty FROM " + pgx.Identifier{schema, table}.Sanitize() + " LIMIT 1"

	var (
		version int64
		state   SchemaState
	)
	err := sqlDB.QueryRowContext(ctx, query).Scan(&version, &state.Dirty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SchemaState{}, nil
		}
		return SchemaState{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version < 0 {
		return SchemaState{}, fmt.Errorf("invalid schema version %d", version)
	}
	state.Version = uint(version)
	return state, nil
}

// LatestEmbeddedVersion returns the highest migration version compiled into
// the binary.
func LatestEmbeddedVersion() (uint, error) {
	files, err := EmbeddedMigrations()
	if err != nil {
		return 0, err
	}

	var latest uint
	for _, file := range files {
		v, err := migrationVersion(path.Base(file))
		if err != nil {
			return 0, err
		}
		latest = max(latest, v)
	}
	return latest, nil
}

func migrationVersion(name string) (uint, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("malformed migration file name %q", name)
	}
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed migration file name %q: %w", name, err)
	}
	return uint(v), nil
}

// CheckSchema fails when the database is dirty or behind the embedded
// migrations. Production runs it at startup instead of migrating.
func CheckSchema(ctx context.Context, sqlDB *sql.DB, schema, table string) error {
	state, err := SchemaVersion(ctx, sqlDB, schema, table)
	if err != nil {
		return err
	}
	if state.Dirty {
		return fmt.Errorf("database is in dirty state at version %d", state.Version)
	}

	want, err := LatestEmbeddedVersion()
	if err != nil {
		return err
	}
	if state.Version < want {
		return fmt.Errorf("%w: at version %d, binary expects %d", ErrSchemaOutdated, state.Version, want)
	}
	return nil
}
