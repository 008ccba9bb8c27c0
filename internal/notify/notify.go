package notify

import "context"

// Action is one clickable action rendered on a primary-channel notification
// (view the post, acknowledge it, ...).
type Action struct {
	Label string
	URL   string
}

// Notification is the primary-channel payload.
type Notification struct {
	Title   string
	Message string
	Link    string
	Actions []Action
}

// Primary is the cheap, non-intrusive default transport.
type Primary interface {
	Send(ctx context.Context, n Notification) error
}

// Secondary is the intrusive escalation transport. Call and SMS succeed or
// fail independently.
type Secondary interface {
	Call(ctx context.Context, spokenText string) error
	SMS(ctx context.Context, body string) error
}
