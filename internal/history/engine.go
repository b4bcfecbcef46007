package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxResults is the result cap used when a search does not set one.
const DefaultMaxResults = 256

// Engine runs searches and deletions against a Store.
type Engine struct {
	store          Store
	cancels        *CancelManager
	now            func() time.Time
	log            zerolog.Logger
	maxResults     int
	maxQueryLength int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCancelManager shares a CancelManager between engines.
func WithCancelManager(m *CancelManager) Option {
	return func(e *Engine) { e.cancels = m }
}

// WithMaxResults sets the default result cap.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithMaxQueryLength caps how many runes of a query are compiled.
func WithMaxQueryLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxQueryLength = n
		}
	}
}

// NewEngine returns an Engine over store. Each engine owns its own
// CancelManager unless WithCancelManager is given.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		cancels:        NewCancelManager(),
		now:            time.Now,
		log:            zerolog.Nop(),
		maxResults:     DefaultMaxResults,
		maxQueryLength: DefaultMaxQueryLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CancelManager returns the manager that owns the engine's search slot.
func (e *Engine) CancelManager() *CancelManager { return e.cancels }

func (e *Engine) resolve(w Window, op string) Range {
	r, ok := w.resolve(e.now())
	if !ok {
		e.log.Warn().
			Str("op", op).
			Time("since", w.Since).
			Time("until", w.Until).
			Msg("malformed window, lower bound dropped")
	}
	return r
}

// pin resolves w and stamps it with the store's insertion mark, so records
// stored after this call stay outside the range even at the same timestamp.
func (e *Engine) pin(ctx context.Context, w Window, op string) (Range, error) {
	r := e.resolve(w, op)
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return r, storeFault("snapshot", err)
	}
	r.Snapshot = snap
	return r, nil
}
