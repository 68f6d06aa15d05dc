package storage

import (
	"context"
	"database/sql"
	"embed"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migration is a single numbered schema step, paired up/down.
type migration struct {
	version     int
	description string
	upSQL       string
	downSQL     string
}

// migrator applies embedded SQL migrations in order, tracked in a
// schema_migrations table. Adapted from the corpus's sqlite migrator
// idiom (teradata-labs-loom's pkg/storage/sqlite/migrator.go) for this
// module's own schema.
type migrator struct {
	db         *sql.DB
	migrations []migration
	mu         sync.Mutex
}

func newMigrator(db *sql.DB) (*migrator, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	return &migrator{db: db, migrations: migrations}, nil
}

// migrateUp applies every pending migration, newest last.
func (m *migrator) migrateUp(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := trace.StartSpan(ctx, "storage_migrate_up")
	defer span.End()

	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}
	span.SetAttr("current_version", current)

	applied := 0
	for _, mig := range m.migrations {
		if mig.version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "apply migration")
		}
		applied++
	}
	span.SetAttr("migrations_applied", applied)
	return nil
}

func (m *migrator) currentVersion(ctx context.Context) (int, error) {
	var count int
	if err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "check schema_migrations table")
	}
	if count == 0 {
		return 0, nil
	}

	var version int
	if err := m.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "read current migration version")
	}
	return version, nil
}

func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			description TEXT
		)`)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "create schema_migrations table")
	}
	return nil
}

func (m *migrator) apply(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.upSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description) VALUES (?, ?) ON CONFLICT(version) DO NOTHING`,
		mig.version, mig.description); err != nil {
		return err
	}
	return tx.Commit()
}

// loadMigrations reads and pairs every embedded *.up.sql/*.down.sql
// file by its leading version number.
func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "read embedded migrations")
	}

	upFiles := make(map[int]string)
	downFiles := make(map[int]string)
	descriptions := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		content, err := migrationFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "read migration file "+entry.Name())
		}

		switch {
		case strings.HasSuffix(parts[1], ".up.sql"):
			descriptions[version] = strings.TrimSuffix(parts[1], ".up.sql")
			upFiles[version] = string(content)
		case strings.HasSuffix(parts[1], ".down.sql"):
			downFiles[version] = string(content)
		}
	}

	var versions []int
	for v := range upFiles {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	migrations := make([]migration, 0, len(versions))
	for _, v := range versions {
		migrations = append(migrations, migration{
			version:     v,
			description: descriptions[v],
			upSQL:       upFiles[v],
			downSQL:     downFiles[v],
		})
	}
	return migrations, nil
}
