package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maxbeyer/postwatch/internal/dispatch"
	"github.com/maxbeyer/postwatch/internal/domain"
	"github.com/maxbeyer/postwatch/internal/store"
)

// Source supplies candidate posts, newest first. How they are fetched is the
// source's business.
type Source interface {
	Listing(ctx context.Context, subreddit string, limit int) ([]domain.Post, error)
}

// Poller drives the polling cycle: every interval it pulls the listing,
// filters for the target author, and hands unseen posts to the dispatcher.
type Poller struct {
	Logger     *zap.Logger
	Source     Source
	Seen       store.SeenStore
	Dispatcher *dispatch.Dispatcher

	TargetUser string
	Subreddit  string
	Limit      int
	Interval   time.Duration
}

// Run does an immediate pass, then one pass per tick. Stops when ctx is
// cancelled. Errors inside a pass are logged and the loop carries on; a bad
// cycle never kills the poller.
func (p *Poller) Run(ctx context.Context) {
	if p.Interval <= 0 {
		p.Logger.Info("poller_disabled")
		return
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("poller_stopped")
			return
		case <-t.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	posts, err := p.Source.Listing(ctx, p.Subreddit, limit)
	if err != nil {
		p.Logger.Warn("poller_listing_error", zap.Error(err))
		return
	}

	for _, post := range posts {
		if !strings.EqualFold(post.Author, p.TargetUser) {
			continue
		}
		if err := p.handlePost(ctx, post); err != nil {
			// keep going; the remaining candidates still get their turn
			p.Logger.Warn("poller_post_error", zap.String("post_id", post.ID), zap.Error(err))
		}
	}
}

func (p *Poller) handlePost(ctx context.Context, post domain.Post) error {
	seen, err := p.Seen.HasSeen(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("has_seen: %w", err)
	}
	if seen {
		return nil
	}

	// Mark seen before dispatching, so a flapping channel cannot cause the
	// same post to notify twice on later cycles.
	if err := p.Seen.RecordSeen(ctx, post.ID, post.Author, post.Subreddit, post.Title); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// another writer got there first
			p.Logger.Debug("poller_duplicate_post", zap.String("post_id", post.ID))
			return nil
		}
		return fmt.Errorf("record_seen: %w", err)
	}

	p.Logger.Info("new_post_detected",
		zap.String("post_id", post.ID),
		zap.String("author", post.Author),
		zap.String("subreddit", post.Subreddit),
	)

	title := fmt.Sprintf("New Reddit Post by u/%s", post.Author)
	message := fmt.Sprintf("Post in r/%s: %s\n\nPosted at: %s",
		post.Subreddit, post.Title, post.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	outcome := p.Dispatcher.Dispatch(ctx, title, message, post.Permalink, post.ID)
	p.Logger.Info("dispatch_outcome",
		zap.String("post_id", post.ID),
		zap.String("outcome", outcome.String()),
	)
	return nil
}
