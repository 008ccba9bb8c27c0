package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxbeyer/postwatch/internal/domain"
	"github.com/maxbeyer/postwatch/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in maps behind one mutex. Used by tests and when
// no DATABASE_PATH is configured.
type Store struct {
	mu      sync.RWMutex
	seen    map[string]*domain.SeenPost
	pending map[string]*domain.PendingNotification

	now func() time.Time // injectable clock
}

func New() *Store {
	return &Store{
		seen:    make(map[string]*domain.SeenPost),
		pending: make(map[string]*domain.PendingNotification),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Test hook.
func (m *Store) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Store) HasSeen(ctx context.Context, postID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[postID]
	return ok, nil
}

func (m *Store) RecordSeen(ctx context.Context, postID, author, subreddit, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[postID]; ok {
		return store.ErrDuplicate
	}
	m.seen[postID] = &domain.SeenPost{
		PostID:    postID,
		Author:    author,
		Subreddit: subreddit,
		Title:     title,
		SeenAt:    m.now(),
	}
	return nil
}

func (m *Store) CreatePending(ctx context.Context, postID, title, message, link string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.pending[id] = &domain.PendingNotification{
		ID:        id,
		PostID:    postID,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: m.now(),
	}
	return id, nil
}

func (m *Store) Acknowledge(ctx context.Context, notificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[notificationID]
	if !ok || p.Acknowledged {
		return false, nil
	}
	p.Acknowledged = true
	return true, nil
}

func (m *Store) ListOverduePending(ctx context.Context, olderThan time.Duration) ([]domain.PendingNotification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := m.now().Add(-olderThan)
	out := make([]domain.PendingNotification, 0)
	for _, p := range m.pending {
		if !p.Acknowledged && p.CreatedAt.Before(cutoff) {
			out = append(out, *p) // copy; callers never share our records
		}
	}
	return out, nil
}

func (m *Store) Close() error { return nil }
