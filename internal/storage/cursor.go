package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/runnerr0/backtrail/internal/history"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type visitRow struct {
	seq int64
	rec history.Record
}

// cursor walks visits by (ts, seq) descending, one page at a time. Each
// page query is keyed on the last row of the previous page, so no
// statement stays open between pulls and rows deleted behind the cursor
// do not shift its position.
type cursor struct {
	q        queryer
	tx       *sql.Tx
	rng      history.Range
	mode     history.CursorMode
	pageSize int

	page    []visitRow
	pos     int
	started bool
	lastTs  int64
	lastSeq int64
	done    bool

	current *visitRow
	err     error
	closed  bool
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if c.pos >= len(c.page) {
		if c.done {
			c.current = nil
			return false
		}
		if err := c.fetch(ctx); err != nil {
			c.err = err
			c.current = nil
			return false
		}
		if len(c.page) == 0 {
			c.current = nil
			return false
		}
	}
	c.current = &c.page[c.pos]
	c.pos++
	return true
}

func (c *cursor) fetch(ctx context.Context) error {
	var clauses []string
	var args []any

	if !c.rng.Lower.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, c.rng.Lower.UnixMilli())
	}
	if !c.rng.Upper.IsZero() {
		clauses = append(clauses, "ts <= ?")
		args = append(args, c.rng.Upper.UnixMilli())
	}
	if c.rng.Snapshot.Valid {
		clauses = append(clauses, "seq <= ?")
		args = append(args, c.rng.Snapshot.Seq)
	}
	if c.started {
		clauses = append(clauses, "(ts < ? OR (ts = ? AND seq < ?))")
		args = append(args, c.lastTs, c.lastTs, c.lastSeq)
	}

	query := "SELECT seq, id, ts, url, host, pathname, title, search_text FROM visits"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY ts DESC, seq DESC LIMIT ?"
	args = append(args, c.pageSize)

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "query visits")
	}
	defer rows.Close()

	page := make([]visitRow, 0, c.pageSize)
	for rows.Next() {
		var v visitRow
		var ts int64
		if err := rows.Scan(
			&v.seq, &v.rec.ID, &ts, &v.rec.URL, &v.rec.Host,
			&v.rec.Pathname, &v.rec.Title, &v.rec.SearchText,
		); err != nil {
			return errors.Wrap(err, "scan visit")
		}
		v.rec.Timestamp = time.UnixMilli(ts)
		page = append(page, v)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "read visits")
	}

	c.page, c.pos = page, 0
	c.started = true
	c.done = len(page) < c.pageSize
	if n := len(page); n > 0 {
		c.lastTs = page[n-1].rec.Timestamp.UnixMilli()
		c.lastSeq = page[n-1].seq
	}
	return nil
}

func (c *cursor) Record() history.Record {
	if c.current == nil {
		return history.Record{}
	}
	return c.current.rec
}

func (c *cursor) Delete(ctx context.Context) error {
	if c.mode != history.ReadWrite {
		return history.ErrReadOnlyCursor
	}
	if c.closed || c.current == nil {
		return errors.New("cursor is not positioned on a visit")
	}
	_, err := c.q.ExecContext(ctx, "DELETE FROM visits WHERE seq = ?", c.current.seq)
	return errors.Wrap(err, "delete visit")
}

func (c *cursor) Err() error { return c.err }

// Close ends the cursor. A ReadWrite cursor commits what it deleted, even
// if iteration failed part way.
func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.page, c.current = nil, nil
	if c.tx != nil {
		return errors.Wrap(c.tx.Commit(), "commit")
	}
	return nil
}
