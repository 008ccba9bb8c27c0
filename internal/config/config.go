package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once in main and handed to each component's constructor.
// Nothing reads the environment after startup.
type Config struct {
	// Reddit event source
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	TargetUsername     string
	TargetSubreddit    string
	PollingInterval    time.Duration
	ListingLimit       int
	FetchAttempts      int
	FetchBackoff       time.Duration

	// Primary channel (ntfy)
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority int
	NtfyTags     string
	NtfyUsername string
	NtfyPassword string

	// Secondary channel (Twilio)
	TwilioEnabled    bool
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioToNumber   string

	// Durable state (empty means in-memory, lost on restart)
	DatabasePath string

	// Acknowledgment receiver
	WebhookEnabled bool
	WebhookAddr    string
	WebhookPath    string
	WebhookSecret  string
	WebhookURL     string // public base URL embedded in ack actions
	WebhookRPM     int
	WebhookBurst   int

	// Escalation
	FollowupDeadline time.Duration
	ScanInterval     time.Duration

	LogDir string
	Debug  bool
}

func FromEnv() Config {
	return Config{
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getStr("REDDIT_USER_AGENT", "RedditMonitor/1.0"),
		TargetUsername:     os.Getenv("TARGET_USERNAME"),
		TargetSubreddit:    os.Getenv("TARGET_SUBREDDIT"),
		PollingInterval:    getSeconds("POLLING_INTERVAL", 60*time.Second),
		ListingLimit:       getInt("LISTING_LIMIT", 10),
		FetchAttempts:      getInt("FETCH_ATTEMPTS", 2),
		FetchBackoff:       getMillis("FETCH_BACKOFF_MS", 500*time.Millisecond),

		NtfyURL:      getStr("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:    getStr("NTFY_TOPIC", "reddit-monitor"),
		NtfyPriority: getInt("NTFY_PRIORITY", 5),
		NtfyTags:     getStr("NTFY_TAGS", "red_circle,warning"),
		NtfyUsername: os.Getenv("NTFY_USERNAME"),
		NtfyPassword: os.Getenv("NTFY_PASSWORD"),

		TwilioEnabled:    getBool("TWILIO_ENABLED", true),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		TwilioToNumber:   os.Getenv("TWILIO_TO_NUMBER"),

		DatabasePath: os.Getenv("DATABASE_PATH"),

		WebhookEnabled: getBool("WEBHOOK_ENABLED", true),
		WebhookAddr:    getStr("WEBHOOK_ADDR", ":5000"),
		WebhookPath:    getStr("WEBHOOK_PATH", "/acknowledge"),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookRPM:     getInt("WEBHOOK_RPM", 120),
		WebhookBurst:   getInt("WEBHOOK_BURST", 30),

		FollowupDeadline: getMinutes("NOTIFICATION_FOLLOWUP_MINUTES", 3*time.Minute),
		ScanInterval:     getSeconds("ESCALATION_SCAN_INTERVAL", 30*time.Second),

		LogDir: getStr("LOG_DIR", "logs"),
		Debug:  getBool("DEBUG", false),
	}
}

// Validate reports the required variables that are missing.
func (c Config) Validate() []string {
	var missing []string
	if c.RedditClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if c.RedditClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if c.TargetUsername == "" {
		missing = append(missing, "TARGET_USERNAME")
	}
	if c.TargetSubreddit == "" {
		missing = append(missing, "TARGET_SUBREDDIT")
	}
	return missing
}

func getStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true")
	}
	return def
}

func getSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func getMinutes(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return def
}

func getMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
