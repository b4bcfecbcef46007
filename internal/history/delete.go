package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DeleteByID removes a single record. Deleting an absent id is a no-op.
func (e *Engine) DeleteByID(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return storeFault("delete", err)
	}
	e.log.Debug().Str("id", id).Msg("record deleted")
	return nil
}

// DeleteRange removes every record visited between since and now. A zero
// since deletes everything up to now.
func (e *Engine) DeleteRange(ctx context.Context, since time.Time) (int, error) {
	return e.DeleteWindow(ctx, Window{Since: since})
}

// DeleteWindow removes every record inside w. The upper bound is fixed
// when the call starts. On failure, deletions issued before the fault are
// kept; repeating the call is safe.
func (e *Engine) DeleteWindow(ctx context.Context, w Window) (int, error) {
	rng, err := e.pin(ctx, w, "delete")
	if err != nil {
		return 0, err
	}

	cur, err := e.store.OpenCursor(ctx, rng, ReadWrite)
	if err != nil {
		return 0, storeFault("open cursor", err)
	}

	n, err := drain(ctx, cur, func(Record) bool { return true })
	if err != nil {
		return n, err
	}

	e.log.Info().
		Time("since", rng.Lower).
		Time("until", rng.Upper).
		Int("deleted", n).
		Msg("range deleted")
	return n, nil
}

// DeleteAll clears the whole store.
func (e *Engine) DeleteAll(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return storeFault("clear", err)
	}
	e.log.Info().Msg("history cleared")
	return nil
}

// Dedupe keeps only the most recent visit for each url and returns how
// many older visits it removed. Timestamps are not bounded, so a visit
// dated in the future is the one kept for its url.
func (e *Engine) Dedupe(ctx context.Context) (int, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return 0, storeFault("snapshot", err)
	}

	cur, err := e.store.OpenCursor(ctx, Range{Snapshot: snap}, ReadWrite)
	if err != nil {
		return 0, storeFault("open cursor", err)
	}

	seen := make(map[string]struct{})
	n, err := drain(ctx, cur, func(r Record) bool {
		if _, dup := seen[r.URL]; dup {
			return true
		}
		seen[r.URL] = struct{}{}
		return false
	})
	if err != nil {
		return n, err
	}

	e.log.Info().Int("deleted", n).Int("kept", len(seen)).Msg("history deduplicated")
	return n, nil
}

// CountWindow returns how many records fall inside w.
func (e *Engine) CountWindow(ctx context.Context, w Window) (int, error) {
	rng, err := e.pin(ctx, w, "count")
	if err != nil {
		return 0, err
	}

	cur, err := e.store.OpenCursor(ctx, rng, ReadOnly)
	if err != nil {
		return 0, storeFault("open cursor", err)
	}

	n := 0
	for cur.Next(ctx) {
		n++
	}
	err = cur.Err()
	if cerr := cur.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, storeFault("iterate", err)
	}
	return n, nil
}

// drain walks cur, deleting each record for which del returns true, and
// always closes the cursor.
func drain(ctx context.Context, cur Cursor, del func(Record) bool) (n int, err error) {
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = storeFault("close cursor", cerr)
		}
	}()

	for cur.Next(ctx) {
		if !del(cur.Record()) {
			continue
		}
		if err := cur.Delete(ctx); err != nil {
			return n, storeFault("delete", errors.Wrapf(err, "record %s", cur.Record().ID))
		}
		n++
	}
	if err := cur.Err(); err != nil {
		return n, storeFault("iterate", err)
	}
	return n, nil
}
