package reddit

import (
	"context"
	"time"

	"github.com/maxbeyer/postwatch/internal/domain"
)

// Source is anything that can fetch a listing. Satisfied by *Client.
type Source interface {
	Listing(ctx context.Context, subreddit string, limit int) ([]domain.Post, error)
}

// Retrying wraps a Source and retries transient listing failures with a
// fixed backoff before giving up for the cycle.
type Retrying struct {
	Inner    Source
	Attempts int
	Backoff  time.Duration
}

func (r *Retrying) Listing(ctx context.Context, subreddit string, limit int) ([]domain.Post, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		posts, err := r.Inner.Listing(ctx, subreddit, limit)
		if err == nil {
			return posts, nil
		}
		lastErr = err
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.Backoff):
			}
		}
	}
	return nil, lastErr
}
