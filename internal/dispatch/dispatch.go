package dispatch

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/maxbeyer/postwatch/internal/notify"
	"github.com/maxbeyer/postwatch/internal/store"
)

// Outcome reports which channel, if any, delivered a notification.
type Outcome int

const (
	Failed Outcome = iota
	DeliveredPrimary
	DeliveredFallback
)

func (o Outcome) String() string {
	switch o {
	case DeliveredPrimary:
		return "primary"
	case DeliveredFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Config carries the acknowledgment wiring. AckBaseURL is the public URL of
// the acknowledgment endpoint (e.g. https://host:5000/acknowledge); when it
// and the secret are set, dispatches with a post id get a pending record and
// an Acknowledge action on the push.
type Config struct {
	AckBaseURL string
	AckSecret  string
}

// Dispatcher sends through the primary channel and falls back to the
// secondary one. The secondary channel is reserved for confirmed-undelivered
// or confirmed-unacknowledged posts, so it fires on immediate primary
// failure or on escalation timeout, never both for the same record.
type Dispatcher struct {
	primary   notify.Primary
	secondary notify.Secondary
	pending   store.PendingStore
	cfg       Config
	log       *zap.Logger
}

func New(primary notify.Primary, secondary notify.Secondary, pending store.PendingStore, cfg Config, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		primary:   primary,
		secondary: secondary,
		pending:   pending,
		cfg:       cfg,
		log:       log,
	}
}

func (d *Dispatcher) trackingEnabled() bool {
	return d.pending != nil && d.cfg.AckBaseURL != "" && d.cfg.AckSecret != ""
}

// Dispatch sends the primary notification for a post, recording a pending
// acknowledgment when tracking is on. On primary failure it falls back to
// the secondary channel synchronously; the fallback substitutes for tracked
// delivery, so any pending record is acknowledged immediately and no
// escalation is owed later.
func (d *Dispatcher) Dispatch(ctx context.Context, title, message, link, postID string) Outcome {
	n := notify.Notification{Title: title, Message: message, Link: link}
	if link != "" {
		n.Actions = append(n.Actions, notify.Action{Label: "View post", URL: link})
	}

	notificationID := ""
	if d.trackingEnabled() && postID != "" {
		id, err := d.pending.CreatePending(ctx, postID, title, message, link)
		if err != nil {
			d.log.Error("create_pending_failed", zap.String("post_id", postID), zap.Error(err))
		} else {
			notificationID = id
			n.Actions = append(n.Actions, notify.Action{Label: "Acknowledge", URL: d.ackURL(id)})
		}
	}

	if d.primary != nil {
		err := d.primary.Send(ctx, n)
		if err == nil {
			d.log.Info("notification_sent",
				zap.String("channel", "primary"),
				zap.String("post_id", postID),
				zap.String("notification_id", notificationID),
			)
			return DeliveredPrimary
		}
		d.log.Warn("primary_send_failed", zap.String("post_id", postID), zap.Error(err))
	}

	if d.secondary == nil {
		return Failed
	}

	ok := d.sendSecondary(ctx, title, message, link)

	// The fallback already reached the human (or we have nothing left to
	// try); either way the pending record must not escalate again later.
	if notificationID != "" {
		if _, err := d.pending.Acknowledge(ctx, notificationID); err != nil {
			d.log.Error("fallback_ack_failed", zap.String("notification_id", notificationID), zap.Error(err))
		}
	}

	if ok {
		return DeliveredFallback
	}
	return Failed
}

// Escalate invokes only the secondary channel. Used by the escalation scan
// once a pending record passes its deadline. Reports whether the voice call
// went through.
func (d *Dispatcher) Escalate(ctx context.Context, title, message, link string) bool {
	if d.secondary == nil {
		return false
	}
	return d.sendSecondary(ctx, title, message, link)
}

// sendSecondary tries the voice call first and the SMS independently. Only
// the call decides the outcome; SMS is best-effort.
func (d *Dispatcher) sendSecondary(ctx context.Context, title, message, link string) bool {
	var errs error

	callErr := d.secondary.Call(ctx, fmt.Sprintf("Alert! %s.", title))
	errs = multierr.Append(errs, callErr)

	body := title + "\n\n" + message
	if link != "" {
		body += "\n\nLink: " + link
	}
	errs = multierr.Append(errs, d.secondary.SMS(ctx, body))

	if errs != nil {
		d.log.Warn("secondary_send_errors", zap.Error(errs))
	}
	if callErr == nil {
		d.log.Info("notification_sent", zap.String("channel", "secondary_voice"))
	}
	return callErr == nil
}

func (d *Dispatcher) ackURL(notificationID string) string {
	q := url.Values{"id": {notificationID}, "secret": {d.cfg.AckSecret}}
	return d.cfg.AckBaseURL + "?" + q.Encode()
}
