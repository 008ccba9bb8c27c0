package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maxbeyer/postwatch/internal/domain"
)

func TestClient_ListingWithCachedToken(t *testing.T) {
	tokenCalls := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if user, _, _ := r.BasicAuth(); user != "cid" {
			t.Errorf("token request missing basic auth, got user %q", user)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok123","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("listing missing bearer token, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("wrong user agent: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"id":"abc","author":"someone","subreddit":"golang","title":"hi","created_utc":1700000000,"permalink":"/r/golang/comments/abc/hi/"}}
		]}}`))
	}))
	defer apiSrv.Close()

	c := NewClient("cid", "csecret", "test-agent/1.0")
	c.TokenURL = tokenSrv.URL
	c.APIBase = apiSrv.URL

	posts, err := c.Listing(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("want 1 post, got %d", len(posts))
	}
	p := posts[0]
	if p.ID != "abc" || p.Author != "someone" || p.Subreddit != "golang" {
		t.Fatalf("post fields wrong: %+v", p)
	}
	if p.Permalink != "https://www.reddit.com/r/golang/comments/abc/hi/" {
		t.Fatalf("permalink not absolute: %q", p.Permalink)
	}
	if p.CreatedAt != time.Unix(1700000000, 0).UTC() {
		t.Fatalf("created_at wrong: %v", p.CreatedAt)
	}

	// second listing reuses the cached token
	if _, err := c.Listing(context.Background(), "golang", 10); err != nil {
		t.Fatalf("second Listing: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("token fetched %d times, want 1", tokenCalls)
	}
}

func TestClient_TokenFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer tokenSrv.Close()

	c := NewClient("cid", "bad", "agent")
	c.TokenURL = tokenSrv.URL

	if _, err := c.Listing(context.Background(), "golang", 10); err == nil {
		t.Fatal("expected error when token endpoint rejects")
	}
}

type flakySource struct {
	failures int
	calls    int
}

func (f *flakySource) Listing(_ context.Context, _ string, _ int) ([]domain.Post, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient")
	}
	return []domain.Post{{ID: "ok"}}, nil
}

func TestRetrying_RecoversFromTransientFailure(t *testing.T) {
	src := &flakySource{failures: 1}
	r := &Retrying{Inner: src, Attempts: 3, Backoff: time.Millisecond}

	posts, err := r.Listing(context.Background(), "golang", 10)
	if err != nil || len(posts) != 1 {
		t.Fatalf("want recovery, got posts=%v err=%v", posts, err)
	}
	if src.calls != 2 {
		t.Fatalf("want 2 attempts, got %d", src.calls)
	}
}

func TestRetrying_GivesUpAfterAttempts(t *testing.T) {
	src := &flakySource{failures: 10}
	r := &Retrying{Inner: src, Attempts: 2, Backoff: time.Millisecond}

	if _, err := r.Listing(context.Background(), "golang", 10); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if src.calls != 2 {
		t.Fatalf("want exactly 2 attempts, got %d", src.calls)
	}
}
