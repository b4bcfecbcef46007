package history

import (
	"context"
	"sync"
)

// Token is the cancellation handle of one search. Once cancelled it
// stays cancelled.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken returns a live token that is also cancelled when parent is.
// Callers that manage their own search lifecycle pass it in SearchOptions,
// which keeps the search out of the CancelManager's slot.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Cancel retires the token. It is safe to call more than once.
func (t *Token) Cancel() { t.cancel() }

// Cancelled reports whether the token was cancelled, superseded, or its
// parent context ended.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Done is closed when the token is cancelled.
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// CancelManager owns the single "current search" slot. Beginning a new
// search cancels the one occupying the slot.
type CancelManager struct {
	mu      sync.Mutex
	current *Token
}

func NewCancelManager() *CancelManager {
	return &CancelManager{}
}

// Begin cancels the current token, if any, and installs a fresh one.
func (m *CancelManager) Begin(parent context.Context) *Token {
	t := NewToken(parent)

	m.mu.Lock()
	prev := m.current
	m.current = t
	m.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return t
}

// IsCancelled reports whether t has been superseded or aborted.
func (m *CancelManager) IsCancelled(t *Token) bool {
	return t == nil || t.Cancelled()
}

// Current returns the token occupying the slot, or nil.
func (m *CancelManager) Current() *Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Finish retires t after its search ended and frees the slot if t still
// occupies it.
func (m *CancelManager) Finish(t *Token) {
	m.mu.Lock()
	if m.current == t {
		m.current = nil
	}
	m.mu.Unlock()
	t.Cancel()
}
