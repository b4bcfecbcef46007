package storage

import "database/sql"

// migrateV001 creates the visit log. ts holds unix milliseconds; seq is
// the insertion order used to break timestamp ties.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visits (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			ts          INTEGER NOT NULL,
			url         TEXT NOT NULL,
			host        TEXT NOT NULL DEFAULT '',
			pathname    TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL DEFAULT '',
			search_text TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_visits_ts   ON visits(ts, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_url  ON visits(url)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_host ON visits(host)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
