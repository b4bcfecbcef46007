package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var errDiskGone = errors.New("disk gone")

type fakeRow struct {
	seq int64
	rec Record
}

func (r fakeRow) less(ts time.Time, seq int64) bool {
	return r.rec.Timestamp.Before(ts) || (r.rec.Timestamp.Equal(ts) && r.seq < seq)
}

// fakeStore is an in-memory Store whose cursors read live data with keyset
// positioning, like the SQLite store.
type fakeStore struct {
	mu   sync.Mutex
	seq  int64
	rows []fakeRow

	openErr     error
	deleteErr   error
	clearErr    error
	snapshotErr error
	// afterSnapshot runs once a snapshot has been taken, outside the lock.
	afterSnapshot func()
	// failAfter makes cursor Next fail once it has visited this many records.
	failAfter int
	// failDeleteAfter makes cursor Delete fail after this many deletions.
	failDeleteAfter int
	deletes         int

	openCursors int
	opened      int
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) add(ts int64, url, title string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rec := Record{
		ID:         fmt.Sprintf("rec-%d", s.seq),
		URL:        url,
		Title:      title,
		SearchText: BuildSearchText(title, url),
		Timestamp:  time.UnixMilli(ts),
	}
	s.rows = append(s.rows, fakeRow{seq: s.seq, rec: rec})
	return rec
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *fakeStore) timestamps() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.rec.Timestamp.UnixMilli())
	}
	return out
}

func (s *fakeStore) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	err, seq, hook := s.snapshotErr, s.seq, s.afterSnapshot
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	if hook != nil {
		hook()
	}
	return Snapshot{Seq: seq, Valid: true}, nil
}

func (s *fakeStore) OpenCursor(ctx context.Context, r Range, mode CursorMode) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.openCursors++
	s.opened++
	return &fakeCursor{s: s, r: r, mode: mode}, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.removeLocked(id)
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.rows = nil
	return nil
}

func (s *fakeStore) removeLocked(id string) {
	for i, r := range s.rows {
		if r.rec.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return
		}
	}
}

type fakeCursor struct {
	s    *fakeStore
	r    Range
	mode CursorMode

	started bool
	lastTs  time.Time
	lastSeq int64
	current fakeRow
	visited int
	err     error
	closed  bool
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if c.s.failAfter > 0 && c.visited >= c.s.failAfter {
		c.err = errDiskGone
		return false
	}

	var best *fakeRow
	for i := range c.s.rows {
		row := c.s.rows[i]
		if !c.r.Contains(row.rec.Timestamp) || !c.r.Snapshot.Includes(row.seq) {
			continue
		}
		if c.started && !row.less(c.lastTs, c.lastSeq) {
			continue
		}
		if best == nil || !row.less(best.rec.Timestamp, best.seq) {
			best = &row
		}
	}
	if best == nil {
		return false
	}

	c.started = true
	c.current = *best
	c.lastTs, c.lastSeq = best.rec.Timestamp, best.seq
	c.visited++
	return true
}

func (c *fakeCursor) Record() Record { return c.current.rec }

func (c *fakeCursor) Delete(ctx context.Context) error {
	if c.mode != ReadWrite {
		return ErrReadOnlyCursor
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.failDeleteAfter > 0 && c.s.deletes >= c.s.failDeleteAfter {
		return errDiskGone
	}
	c.s.deletes++
	c.s.removeLocked(c.current.rec.ID)
	return nil
}

func (c *fakeCursor) Err() error { return c.err }

func (c *fakeCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.s.mu.Lock()
	c.s.openCursors--
	c.s.mu.Unlock()
	return nil
}
