package storage

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/runnerr0/backtrail/internal/history"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("visit not found")

const defaultPageSize = 64

// SQLiteStore is the visit log backed by SQLite. It implements history.Store.
type SQLiteStore struct {
	db *sql.DB

	insertVisit *sql.Stmt
	getVisit    *sql.Stmt
	deleteVisit *sql.Stmt

	pageSize int
	now      func() time.Time
}

var _ history.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, pageSize: defaultPageSize, now: time.Now}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "prepare statements")
	}
	return s, nil
}

// Options controls how Open prepares the database.
type Options struct {
	JournalMode string
	Logger      zerolog.Logger
}

// Open opens (creating if needed) the database at path, applies migrations,
// and returns the store with its *sql.DB. ":memory:" is kept on a single
// connection so every query sees the same database.
func Open(path string, opts Options) (*SQLiteStore, *sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	runner := NewMigrationRunner(db).WithJournalMode(opts.JournalMode).WithLogger(opts.Logger)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO visits (id, ts, url, host, pathname, title, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getVisit, err = s.db.Prepare(`
		SELECT id, ts, url, host, pathname, title, search_text
		FROM visits WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.deleteVisit, err = s.db.Prepare(`DELETE FROM visits WHERE id = ?`)
	return err
}

// Add records a visit. ID is always assigned; Timestamp defaults to now;
// Host, Pathname and SearchText are derived from URL and Title.
func (s *SQLiteStore) Add(ctx context.Context, rec *history.Record) error {
	u, err := url.Parse(rec.URL)
	if err != nil || !u.IsAbs() {
		return errors.Errorf("invalid url %q", rec.URL)
	}

	rec.ID = uuid.NewString()
	rec.Host = u.Host
	rec.Pathname = u.EscapedPath()
	if rec.Pathname == "" {
		rec.Pathname = "/"
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	if rec.SearchText == "" {
		rec.SearchText = history.BuildSearchText(rec.Title, rec.URL)
	}

	_, err = s.insertVisit.ExecContext(ctx,
		rec.ID, rec.Timestamp.UnixMilli(), rec.URL, rec.Host, rec.Pathname, rec.Title, rec.SearchText,
	)
	return errors.Wrap(err, "insert visit")
}

// Get retrieves a single visit by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*history.Record, error) {
	var rec history.Record
	var ts int64
	err := s.getVisit.QueryRowContext(ctx, id).Scan(
		&rec.ID, &ts, &rec.URL, &rec.Host, &rec.Pathname, &rec.Title, &rec.SearchText,
	)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get visit")
	}
	rec.Timestamp = time.UnixMilli(ts)
	return &rec, nil
}

// Delete removes a visit by id. Unknown ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.deleteVisit.ExecContext(ctx, id)
	return errors.Wrap(err, "delete visit")
}

// Clear removes every visit.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM visits")
	return errors.Wrap(err, "clear visits")
}

// Snapshot returns the highest seq stored so far. AUTOINCREMENT never
// reuses a seq, so every later insert lands above it.
func (s *SQLiteStore) Snapshot(ctx context.Context) (history.Snapshot, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM visits").Scan(&seq)
	if err != nil {
		return history.Snapshot{}, errors.Wrap(err, "read insertion mark")
	}
	return history.Snapshot{Seq: seq, Valid: true}, nil
}

// OpenCursor returns a descending cursor over r. ReadWrite cursors run in
// a transaction that Close commits. The transaction outlives ctx, so a
// cancelled caller keeps the deletions it already issued.
func (s *SQLiteStore) OpenCursor(ctx context.Context, r history.Range, mode history.CursorMode) (history.Cursor, error) {
	c := &cursor{rng: r, mode: mode, pageSize: s.pageSize, q: s.db}
	if mode == history.ReadWrite {
		tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, errors.Wrap(err, "begin tx")
		}
		c.tx, c.q = tx, tx
	}
	return c, nil
}

// Stats returns aggregate statistics about the visit log.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT url) FROM visits",
	).Scan(&stats.TotalVisits, &stats.UniqueURLs)
	if err != nil {
		return nil, errors.Wrap(err, "count visits")
	}

	if stats.TotalVisits > 0 {
		var oldest, newest int64
		err = s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM visits").Scan(&oldest, &newest)
		if err != nil {
			return nil, errors.Wrap(err, "visit time range")
		}
		stats.OldestVisit = time.UnixMilli(oldest)
		stats.NewestVisit = time.UnixMilli(newest)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT host, COUNT(*) AS cnt FROM visits GROUP BY host ORDER BY cnt DESC, host LIMIT 10",
	)
	if err != nil {
		return nil, errors.Wrap(err, "top hosts")
	}
	defer rows.Close()

	for rows.Next() {
		var hc HostCount
		if err := rows.Scan(&hc.Host, &hc.Count); err != nil {
			return nil, err
		}
		stats.TopHosts = append(stats.TopHosts, hc)
	}
	return stats, rows.Err()
}

// Close releases the prepared statements. The *sql.DB stays open; closing
// it is the caller's job.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertVisit, s.getVisit, s.deleteVisit} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
