package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maxbeyer/postwatch/internal/domain"
)

// ErrDuplicate is returned by RecordSeen when the post id already exists.
// Callers check HasSeen first, but the store rejects repeats on its own
// since check-then-insert is not atomic across goroutines.
var ErrDuplicate = errors.New("store: duplicate key")

// StorageError wraps I/O and constraint failures from an adapter. The store
// never retries; retry policy belongs to callers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Ports (interfaces) — swap in any DB adapter later.

type SeenStore interface {
	HasSeen(ctx context.Context, postID string) (bool, error)
	RecordSeen(ctx context.Context, postID, author, subreddit, title string) error
}

type PendingStore interface {
	// CreatePending inserts an unacknowledged record and returns its fresh id.
	CreatePending(ctx context.Context, postID, title, message, link string) (string, error)
	// Acknowledge flips acknowledged false→true. Returns whether a row
	// changed; re-acknowledging or an unknown id returns false, never an error.
	Acknowledge(ctx context.Context, notificationID string) (bool, error)
	// ListOverduePending returns a point-in-time snapshot of unacknowledged
	// records created more than olderThan ago.
	ListOverduePending(ctx context.Context, olderThan time.Duration) ([]domain.PendingNotification, error)
}

type Store interface {
	SeenStore
	PendingStore
	Close() error
}
