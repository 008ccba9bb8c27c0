package domain

import "time"

// Post is one candidate item from the subreddit's new-listing feed.
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Subreddit string    `json:"subreddit"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Permalink string    `json:"permalink"`
}

// SeenPost is the append-only record of a post we already handled.
// Rows are never updated or deleted.
type SeenPost struct {
	PostID    string    `json:"post_id"`
	Author    string    `json:"author"`
	Subreddit string    `json:"subreddit"`
	Title     string    `json:"title"`
	SeenAt    time.Time `json:"seen_at"`
}

// PendingNotification is a primary-channel send that still awaits a human
// acknowledgment. Acknowledged only ever flips false→true.
type PendingNotification struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Link         string    `json:"link,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}
