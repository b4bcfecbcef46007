package storage

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// migration is one numbered schema step.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner applies pending migrations to a SQLite database.
type MigrationRunner struct {
	db          *sql.DB
	journalMode string
	log         zerolog.Logger
	migrations  []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db:          db,
		journalMode: "WAL",
		log:         zerolog.Nop(),
		migrations: []migration{
			{Version: 1, Name: "visit_log", Apply: migrateV001},
		},
	}
}

// WithJournalMode overrides the journal mode set before migrating.
func (r *MigrationRunner) WithJournalMode(mode string) *MigrationRunner {
	if mode != "" {
		r.journalMode = mode
	}
	return r
}

// WithLogger sets the logger used to report applied migrations.
func (r *MigrationRunner) WithLogger(l zerolog.Logger) *MigrationRunner {
	r.log = l
	return r
}

// Run sets the journal mode, creates the schema_migrations table, and
// applies every migration not recorded there yet.
func (r *MigrationRunner) Run() error {
	switch r.journalMode {
	case "WAL", "wal", "DELETE", "delete", "TRUNCATE", "truncate", "MEMORY", "memory":
	default:
		return errors.Errorf("unsupported journal mode %q", r.journalMode)
	}
	if _, err := r.db.Exec("PRAGMA journal_mode = " + r.journalMode); err != nil {
		return errors.Wrap(err, "set journal mode")
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations table")
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(m.Version)
		if err != nil {
			return errors.Wrapf(err, "check migration %d", m.Version)
		}
		if applied {
			continue
		}

		if err := r.apply(m); err != nil {
			return errors.Wrapf(err, "apply migration %d (%s)", m.Version, m.Name)
		}
		r.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
	}

	return nil
}

func (r *MigrationRunner) isApplied(version int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	); err != nil {
		return errors.Wrap(err, "record migration")
	}

	return tx.Commit()
}
