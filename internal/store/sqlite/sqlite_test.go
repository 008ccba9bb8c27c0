package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/maxbeyer/postwatch/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "state.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_SeenRoundTripAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seen, err := s.HasSeen(ctx, "abc")
	if err != nil || seen {
		t.Fatalf("fresh id should be unseen: seen=%v err=%v", seen, err)
	}
	if err := s.RecordSeen(ctx, "abc", "someuser", "golang", "title"); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	seen, err = s.HasSeen(ctx, "abc")
	if err != nil || !seen {
		t.Fatalf("want seen: seen=%v err=%v", seen, err)
	}

	err = s.RecordSeen(ctx, "abc", "someuser", "golang", "title")
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestSQLite_PendingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.RecordSeen(ctx, "post1", "u", "r", "t"); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	id, err := s.CreatePending(ctx, "post1", "Title", "Message", "https://example.com/x")
	if err != nil || id == "" {
		t.Fatalf("CreatePending: id=%q err=%v", id, err)
	}

	changed, err := s.Acknowledge(ctx, id)
	if err != nil || !changed {
		t.Fatalf("first ack: changed=%v err=%v", changed, err)
	}
	changed, err = s.Acknowledge(ctx, id)
	if err != nil || changed {
		t.Fatalf("re-ack must not change a row: changed=%v err=%v", changed, err)
	}
	changed, err = s.Acknowledge(ctx, "missing")
	if err != nil || changed {
		t.Fatalf("unknown id: changed=%v err=%v", changed, err)
	}
}

func TestSQLite_ListOverdueBoundary(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_ = s.RecordSeen(ctx, "p-old", "u", "r", "t")
	_ = s.RecordSeen(ctx, "p-new", "u", "r", "t")

	s.SetClock(func() time.Time { return base.Add(-4 * time.Minute) })
	oldID, err := s.CreatePending(ctx, "p-old", "Old", "m", "")
	if err != nil {
		t.Fatalf("CreatePending old: %v", err)
	}
	s.SetClock(func() time.Time { return base.Add(-2 * time.Minute) })
	if _, err := s.CreatePending(ctx, "p-new", "New", "m", ""); err != nil {
		t.Fatalf("CreatePending new: %v", err)
	}

	s.SetClock(func() time.Time { return base })
	overdue, err := s.ListOverduePending(ctx, 3*time.Minute)
	if err != nil {
		t.Fatalf("ListOverduePending: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != oldID {
		t.Fatalf("want only the 4-minute-old record, got %+v", overdue)
	}
	if overdue[0].Title != "Old" || overdue[0].PostID != "p-old" {
		t.Fatalf("row fields lost in scan: %+v", overdue[0])
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	s, err := New(ctx, path, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.RecordSeen(ctx, "persist1", "u", "r", "t"); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	_ = s.Close()

	s2, err := New(ctx, path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	seen, err := s2.HasSeen(ctx, "persist1")
	if err != nil || !seen {
		t.Fatalf("state lost across reopen: seen=%v err=%v", seen, err)
	}
}
