package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Ntfy publishes to an ntfy topic. The message travels in the body; title,
// priority, tags, click target and actions are headers.
type Ntfy struct {
	BaseURL  string // server, e.g. https://ntfy.sh
	Topic    string
	Priority int
	Tags     string // comma-separated emoji shortcodes
	Username string
	Password string
	Client   *http.Client
}

func NewNtfy(baseURL, topic string, priority int, tags, username, password string) *Ntfy {
	if baseURL == "" || topic == "" {
		return nil
	}
	return &Ntfy{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Topic:    topic,
		Priority: priority,
		Tags:     tags,
		Username: username,
		Password: password,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Ntfy) Send(ctx context.Context, msg Notification) error {
	if n == nil || n.BaseURL == "" {
		return errors.New("ntfy disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.BaseURL+"/"+n.Topic, strings.NewReader(msg.Message))
	if err != nil {
		return err
	}
	req.Header.Set("Title", msg.Title)
	req.Header.Set("Priority", fmt.Sprintf("%d", n.Priority))
	if n.Tags != "" {
		req.Header.Set("Tags", n.Tags)
	}
	if msg.Link != "" {
		req.Header.Set("Click", msg.Link)
	}
	if len(msg.Actions) > 0 {
		req.Header.Set("Actions", renderActions(msg.Actions))
	}
	if n.Username != "" && n.Password != "" {
		req.SetBasicAuth(n.Username, n.Password)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("ntfy status %d", resp.StatusCode)
	}
	return nil
}

// renderActions builds the ntfy Actions header: "view, Label, URL" entries
// separated by "; ". Labels with commas would break the format, so strip them.
func renderActions(actions []Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		label := strings.ReplaceAll(a.Label, ",", "")
		parts = append(parts, fmt.Sprintf("view, %s, %s", label, a.URL))
	}
	return strings.Join(parts, "; ")
}
