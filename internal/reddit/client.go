package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/maxbeyer/postwatch/internal/domain"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	apiBase  = "https://oauth.reddit.com"
)

// Client fetches subreddit listings with an app-only (client credentials)
// token. Tokens are cached until shortly before expiry.
type Client struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Client       *http.Client

	TokenURL string // overridable for tests
	APIBase  string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(clientID, clientSecret, userAgent string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
		Client:       &http.Client{Timeout: 15 * time.Second},
		TokenURL:     tokenURL,
		APIBase:      apiBase,
	}
}

// Listing returns the newest posts of a subreddit, newest first.
func (c *Client) Listing(ctx context.Context, subreddit string, limit int) ([]domain.Post, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/r/%s/new?limit=%d",
		strings.TrimRight(c.APIBase, "/"), url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit listing status %d", resp.StatusCode)
	}

	var body listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	posts := make([]domain.Post, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			ID:        d.ID,
			Author:    d.Author,
			Subreddit: d.Subreddit,
			Title:     d.Title,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Permalink: "https://www.reddit.com" + d.Permalink,
		})
	}
	return posts, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token status %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}

	c.token = tr.AccessToken
	// renew a minute early so in-flight requests don't ride an expired token
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Author     string  `json:"author"`
				Subreddit  string  `json:"subreddit"`
				Title      string  `json:"title"`
				CreatedUTC float64 `json:"created_utc"`
				Permalink  string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
