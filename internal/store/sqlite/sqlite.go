package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/maxbeyer/postwatch/internal/domain"
	"github.com/maxbeyer/postwatch/internal/store"
)

var _ store.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS seen_posts (
    post_id   TEXT PRIMARY KEY,
    author    TEXT NOT NULL,
    subreddit TEXT NOT NULL,
    title     TEXT NOT NULL,
    seen_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pending_notifications (
    id           TEXT PRIMARY KEY,
    post_id      TEXT NOT NULL REFERENCES seen_posts(post_id),
    title        TEXT NOT NULL,
    message      TEXT NOT NULL,
    link         TEXT,
    created_at   TEXT NOT NULL,
    acknowledged INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_pending_unacked
    ON pending_notifications(acknowledged, created_at);
`

type Store struct {
	db  *sql.DB
	log *zap.Logger

	now func() time.Time
}

func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a small number of concurrent writers. One connection
	// serializes the poller, the escalator and the ack receiver.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &store.StorageError{Op: "migrate", Err: err}
	}

	return &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// SetClock replaces the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) HasSeen(ctx context.Context, postID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_posts WHERE post_id = ?`, postID).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, &store.StorageError{Op: "has_seen", Err: err}
	}
	return true, nil
}

func (s *Store) RecordSeen(ctx context.Context, postID, author, subreddit, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_posts (post_id, author, subreddit, title, seen_at)
		 VALUES (?, ?, ?, ?, ?)`,
		postID, author, subreddit, title, s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return &store.StorageError{Op: "record_seen", Err: err}
	}
	return nil
}

func (s *Store) CreatePending(ctx context.Context, postID, title, message, link string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_notifications (id, post_id, title, message, link, created_at, acknowledged)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		id, postID, title, message, nullStr(link), s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", &store.StorageError{Op: "create_pending", Err: err}
	}
	return id, nil
}

// Acknowledge is a compare-and-set: the WHERE clause guarantees that of any
// number of concurrent calls for the same id, exactly one reports a change.
func (s *Store) Acknowledge(ctx context.Context, notificationID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_notifications SET acknowledged = 1
		  WHERE id = ? AND acknowledged = 0`,
		notificationID,
	)
	if err != nil {
		return false, &store.StorageError{Op: "acknowledge", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &store.StorageError{Op: "acknowledge", Err: err}
	}
	return n > 0, nil
}

func (s *Store) ListOverduePending(ctx context.Context, olderThan time.Duration) ([]domain.PendingNotification, error) {
	cutoff := s.now().Add(-olderThan).Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, title, message, link, created_at
		   FROM pending_notifications
		  WHERE acknowledged = 0 AND created_at < ?`,
		cutoff,
	)
	if err != nil {
		return nil, &store.StorageError{Op: "list_overdue", Err: err}
	}
	defer rows.Close()

	var out []domain.PendingNotification
	for rows.Next() {
		var (
			p         domain.PendingNotification
			link      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.PostID, &p.Title, &p.Message, &link, &createdAt); err != nil {
			return nil, &store.StorageError{Op: "list_overdue", Err: err}
		}
		p.Link = link.String
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "list_overdue", Err: err}
	}
	return out, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// modernc.org/sqlite surfaces constraint failures as plain errors; match on
// the SQLite message rather than importing driver internals.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: seen_posts.post_id")
}
