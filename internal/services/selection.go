package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"c2w-go-api/internal/models"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrSuperseded     = errors.New("selection superseded by a newer one")
)

// Ticket identifies one in-flight selection of a session
type Ticket struct {
	Session    string
	Generation uint64
	Ctx        context.Context
}

type sessionState struct {
	generation uint64
	cancel     context.CancelFunc
	current    *models.Dashboard
}

// SelectionTracker keeps the latest dashboard per session. Every new selection
// bumps the session generation and cancels the one it replaces, so a late
// response for an old selection can never overwrite a newer one.
type SelectionTracker struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewSelectionTracker() *SelectionTracker {
	return &SelectionTracker{
		sessions: make(map[string]*sessionState),
	}
}

// Open registers a new session and returns its id
func (t *SelectionTracker) Open() string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = &sessionState{}
	return id
}

// Close forgets a session and cancels its in-flight selection
func (t *SelectionTracker) Close(session string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[session]
	if !ok {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	delete(t.sessions, session)
	return true
}

// Begin starts a new selection for the session
func (t *SelectionTracker) Begin(parent context.Context, session string) (Ticket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[session]
	if !ok {
		return Ticket{}, ErrUnknownSession
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	s.generation++
	s.cancel = cancel

	return Ticket{Session: session, Generation: s.generation, Ctx: ctx}, nil
}

// Commit stores the dashboard if the ticket is still the latest selection.
// It reports false for stale tickets, whose results are dropped.
func (t *SelectionTracker) Commit(ticket Ticket, dashboard *models.Dashboard) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[ticket.Session]
	if !ok || s.generation != ticket.Generation {
		return false
	}

	s.current = dashboard
	s.cancel()
	s.cancel = nil
	return true
}

// Abandon releases a ticket whose selection failed
func (t *SelectionTracker) Abandon(ticket Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[ticket.Session]
	if !ok || s.generation != ticket.Generation || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Current returns the last committed dashboard of a session
func (t *SelectionTracker) Current(session string) (*models.Dashboard, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[session]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s.current, nil
}

// Select runs build under a fresh ticket and commits its result. A selection
// replaced while build was running returns ErrSuperseded.
func (t *SelectionTracker) Select(ctx context.Context, session string, build func(context.Context) (*models.Dashboard, error)) (*models.Dashboard, error) {
	ticket, err := t.Begin(ctx, session)
	if err != nil {
		return nil, err
	}

	dashboard, err := build(ticket.Ctx)
	if err != nil {
		superseded := ticket.Ctx.Err() != nil && ctx.Err() == nil
		t.Abandon(ticket)
		if superseded {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	if !t.Commit(ticket, dashboard) {
		return nil, ErrSuperseded
	}
	return dashboard, nil
}
