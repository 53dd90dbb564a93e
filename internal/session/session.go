package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// CookieName carries the session ID in the browser.
const CookieName = "trends_session"

// ErrNotFound is returned by Load for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// State is what one user is looking at: the last submitted form, the last
// successful table and summary, and the last error. Treat it as a value;
// operations take the previous State and return the next one.
type State struct {
	ID        string         `json:"id"`
	Input     query.Input    `json:"input"`
	Query     *query.Query   `json:"query,omitempty"`
	Table     *trend.Table   `json:"table,omitempty"`
	Summary   *trend.Summary `json:"summary,omitempty"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// New returns an empty state with a fresh random ID.
func New() State {
	return State{ID: uuid.NewString(), UpdatedAt: time.Now()}
}

// HasTable reports whether there is something to summarize or export.
func (s State) HasTable() bool {
	return s.Table != nil && !s.Table.Empty()
}

// Store persists states between requests.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps states in process memory with idle expiry.
type MemoryStore struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates a store whose sessions expire after ttl without use.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: gocache.New(ttl, ttl),
		ttl:   ttl,
	}
}

// Load returns the state saved under id and refreshes its expiry.
func (m *MemoryStore) Load(ctx context.Context, id string) (State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return State{}, ErrNotFound
	}
	v, found := m.items.Get(id)
	if !found {
		return State{}, ErrNotFound
	}
	s := v.(State)
	m.items.Set(id, s, m.ttl)
	return s, nil
}

// Save stores s under its ID.
func (m *MemoryStore) Save(ctx context.Context, s State) error {
	if s.ID == "" {
		return errors.New("session state has no ID")
	}
	m.items.Set(s.ID, s, m.ttl)
	return nil
}

// Delete forgets the session.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.items.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	return m.items.ItemCount()
}
