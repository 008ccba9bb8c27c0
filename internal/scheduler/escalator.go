package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maxbeyer/postwatch/internal/dispatch"
	"github.com/maxbeyer/postwatch/internal/store"
)

// Escalator is the background scan for primary notifications that were never
// acknowledged. It runs on its own cadence, independent of the poller and of
// the deadline itself.
type Escalator struct {
	Logger     *zap.Logger
	Pending    store.PendingStore
	Dispatcher *dispatch.Dispatcher

	Deadline time.Duration // how long a record may sit unacknowledged
	Interval time.Duration // scan cadence
}

// Run scans once per tick until ctx is cancelled. Scan errors are logged and
// retried on the next tick; nothing here may stop the loop permanently.
func (e *Escalator) Run(ctx context.Context) {
	if e.Interval <= 0 || e.Deadline <= 0 {
		e.Logger.Info("escalator_disabled")
		return
	}
	t := time.NewTicker(e.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Logger.Info("escalator_stopped")
			return
		case <-t.C:
			e.scanOnce(ctx)
		}
	}
}

func (e *Escalator) scanOnce(ctx context.Context) {
	overdue, err := e.Pending.ListOverduePending(ctx, e.Deadline)
	if err != nil {
		e.Logger.Warn("escalator_scan_error", zap.Error(err))
		return
	}

	for _, rec := range overdue {
		// Escalation and the acknowledge below are one unit per record:
		// acknowledge follows the attempt whether it succeeded or not, so a
		// record is never phoned about twice.
		ok := e.Dispatcher.Escalate(ctx,
			rec.Title,
			rec.Message+"\n\n(Follow-up: this notification was not acknowledged)",
			rec.Link,
		)

		changed, err := e.Pending.Acknowledge(ctx, rec.ID)
		if err != nil {
			e.Logger.Error("escalator_ack_error",
				zap.String("notification_id", rec.ID), zap.Error(err))
			continue
		}

		e.Logger.Info("notification_escalated",
			zap.String("notification_id", rec.ID),
			zap.String("post_id", rec.PostID),
			zap.Bool("voice_delivered", ok),
			zap.Bool("row_changed", changed),
		)
	}
}
