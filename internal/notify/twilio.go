package notify

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Twilio places voice calls and sends SMS through Twilio's REST API.
// The two sub-channels report success independently.
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	BaseURL    string // overridable for tests; defaults to Twilio's API
	Client     *http.Client
}

const twilioAPI = "https://api.twilio.com"

func NewTwilio(accountSID, authToken, from, to string) *Twilio {
	if accountSID == "" || authToken == "" {
		return nil
	}
	return &Twilio{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		To:         to,
		BaseURL:    twilioAPI,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Call places a voice call that speaks the given text, pauses, then points
// the listener at their notifications.
func (t *Twilio) Call(ctx context.Context, spokenText string) error {
	if t == nil {
		return errors.New("twilio disabled")
	}
	twiml := fmt.Sprintf(
		`<Response><Say>%s</Say><Pause length="1"/><Say>Check notifications for details.</Say></Response>`,
		xmlEscape(spokenText),
	)
	form := url.Values{
		"Twiml": {twiml},
		"From":  {t.From},
		"To":    {t.To},
	}
	return t.post(ctx, "Calls", form)
}

func (t *Twilio) SMS(ctx context.Context, body string) error {
	if t == nil {
		return errors.New("twilio disabled")
	}
	form := url.Values{
		"Body": {body},
		"From": {t.From},
		"To":   {t.To},
	}
	return t.post(ctx, "Messages", form)
}

func (t *Twilio) post(ctx context.Context, resource string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s.json",
		strings.TrimRight(t.BaseURL, "/"), t.AccountSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.AccountSID, t.AuthToken)

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio %s status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
