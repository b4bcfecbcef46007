package history

import (
	"context"
	"iter"
)

// State is the lifecycle position of a Stream.
type State int

const (
	Idle State = iota
	Compiling
	Iterating
	Exhausted
	Cancelled
	Capped
	Failed
)

var stateNames = [...]string{"idle", "compiling", "iterating", "exhausted", "cancelled", "capped", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further records can be produced.
func (s State) Terminal() bool { return s >= Exhausted }

// SearchOptions tunes a single search.
type SearchOptions struct {
	// MaxResults caps the number of records yielded; <= 0 uses the engine default.
	MaxResults int
	// Token, when set, is used instead of one from the engine's
	// CancelManager, so the search neither supersedes nor can be
	// superseded by other searches.
	Token *Token
	// Window bounds the search. A zero Until is pinned to the search start.
	Window Window
}

// Stream is a lazy, forward-only sequence of matching records, most
// recent first, with repeat visits to a url collapsed into the most
// recent one. It is not safe for concurrent use and cannot be restarted.
type Stream struct {
	engine  *Engine
	query   string
	token   *Token
	managed bool
	rng     Range
	max     int

	matcher *Matcher
	cursor  Cursor
	seen    map[string]struct{}
	yielded int
	current Record
	state   State
	err     error
	pinErr  error
}

// Search starts a search for query. Without opts.Token the search takes
// the engine's current-search slot, cancelling the search that held it.
// Search only records the store's insertion mark; the cursor is opened by
// the first call to Next.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) *Stream {
	if ctx == nil {
		ctx = context.Background()
	}
	token, managed := opts.Token, false
	if token == nil {
		token, managed = e.cancels.Begin(ctx), true
	}

	max := opts.MaxResults
	if max <= 0 {
		max = e.maxResults
	}

	rng, err := e.pin(ctx, opts.Window, "search")

	return &Stream{
		engine:  e,
		query:   query,
		token:   token,
		managed: managed,
		rng:     rng,
		max:     max,
		seen:    make(map[string]struct{}),
		state:   Idle,
		pinErr:  err,
	}
}

// Next advances to the next matching record. It returns false once the
// stream is exhausted, cancelled, capped, or failed; only the last of
// those sets Err.
func (s *Stream) Next() bool {
	switch s.state {
	case Idle:
		if !s.open() {
			return false
		}
	case Iterating:
	default:
		return false
	}

	for {
		if s.token.Cancelled() {
			s.finish(Cancelled, nil)
			return false
		}
		if !s.cursor.Next(s.token.ctx) {
			err := s.cursor.Err()
			switch {
			case s.token.Cancelled():
				s.finish(Cancelled, nil)
			case err != nil:
				s.finish(Failed, storeFault("iterate", err))
			default:
				s.finish(Exhausted, nil)
			}
			return false
		}

		rec := s.cursor.Record()
		if s.token.Cancelled() {
			s.finish(Cancelled, nil)
			return false
		}
		if !s.matcher.MatchRecord(rec) {
			continue
		}
		if _, dup := s.seen[rec.URL]; dup {
			continue
		}
		s.seen[rec.URL] = struct{}{}
		s.current = rec
		s.yielded++
		if s.yielded >= s.max {
			s.finish(Capped, nil)
		}
		return true
	}
}

func (s *Stream) open() bool {
	s.state = Compiling
	s.matcher = CompileLimit(s.query, s.engine.maxQueryLength)

	if s.token.Cancelled() {
		s.finish(Cancelled, nil)
		return false
	}
	if s.pinErr != nil {
		s.finish(Failed, s.pinErr)
		return false
	}

	cur, err := s.engine.store.OpenCursor(s.token.ctx, s.rng, ReadOnly)
	if err != nil {
		if s.token.Cancelled() {
			s.finish(Cancelled, nil)
		} else {
			s.finish(Failed, storeFault("open cursor", err))
		}
		return false
	}
	s.cursor = cur
	s.state = Iterating
	return true
}

// finish moves the stream to a terminal state and releases the cursor and
// the manager slot.
func (s *Stream) finish(state State, err error) {
	if s.state.Terminal() {
		return
	}
	if s.cursor != nil {
		if cerr := s.cursor.Close(); cerr != nil && err == nil {
			err = storeFault("close cursor", cerr)
			state = Failed
		}
		s.cursor = nil
	}
	if s.managed {
		s.engine.cancels.Finish(s.token)
	}
	s.state = state
	s.err = err

	ev := s.engine.log.Debug()
	if state == Failed {
		ev = s.engine.log.Error().Err(err)
	}
	ev.Str("query", s.matcher.Query()).
		Str("state", state.String()).
		Int("yielded", s.yielded).
		Msg("search finished")
}

// Record returns the record produced by the last successful Next.
func (s *Stream) Record() Record { return s.current }

// Err returns the store failure that ended the stream, if any.
// Cancellation is never reported here.
func (s *Stream) Err() error { return s.err }

// State returns the stream's lifecycle position.
func (s *Stream) State() State { return s.state }

// Yielded returns how many records the stream has produced so far.
func (s *Stream) Yielded() int { return s.yielded }

// Close abandons the stream and releases its cursor. It is safe to call
// on a finished stream.
func (s *Stream) Close() error {
	if s.matcher == nil {
		s.matcher = CompileLimit(s.query, s.engine.maxQueryLength)
	}
	s.finish(Cancelled, nil)
	return s.err
}

// Records adapts the stream to a range-over-func iterator. The stream is
// closed when the loop ends; check Err afterwards.
func (s *Stream) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.Record()) {
				return
			}
		}
	}
}

// Collect drains the stream into a slice.
func (s *Stream) Collect() ([]Record, error) {
	out := []Record{}
	for rec := range s.Records() {
		out = append(out, rec)
	}
	return out, s.Err()
}
