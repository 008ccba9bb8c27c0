package config

import (
	"os"
	"testing"
	"time"
)

func TestFromEnv_ParsesAndDefaults(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "cid")
	t.Setenv("REDDIT_CLIENT_SECRET", "csecret")
	t.Setenv("TARGET_USERNAME", "someuser")
	t.Setenv("TARGET_SUBREDDIT", "golang")
	t.Setenv("POLLING_INTERVAL", "30")
	t.Setenv("NTFY_TOPIC", "my-topic")
	t.Setenv("NTFY_PRIORITY", "4")
	t.Setenv("TWILIO_ENABLED", "false")
	t.Setenv("DATABASE_PATH", "/data/state.db")
	t.Setenv("WEBHOOK_SECRET", "shh")
	t.Setenv("NOTIFICATION_FOLLOWUP_MINUTES", "7")
	t.Setenv("ESCALATION_SCAN_INTERVAL", "15")

	cfg := FromEnv()

	if cfg.TargetUsername != "someuser" || cfg.TargetSubreddit != "golang" {
		t.Fatalf("target wrong: %+v", cfg)
	}
	if cfg.PollingInterval != 30*time.Second {
		t.Fatalf("polling interval wrong: %v", cfg.PollingInterval)
	}
	if cfg.NtfyTopic != "my-topic" || cfg.NtfyPriority != 4 {
		t.Fatalf("ntfy wrong: topic=%q priority=%d", cfg.NtfyTopic, cfg.NtfyPriority)
	}
	if cfg.TwilioEnabled {
		t.Fatal("TWILIO_ENABLED=false not honored")
	}
	if cfg.FollowupDeadline != 7*time.Minute {
		t.Fatalf("deadline wrong: %v", cfg.FollowupDeadline)
	}
	if cfg.ScanInterval != 15*time.Second {
		t.Fatalf("scan interval wrong: %v", cfg.ScanInterval)
	}
	if cfg.DatabasePath != "/data/state.db" {
		t.Fatalf("db path wrong: %q", cfg.DatabasePath)
	}
	if len(cfg.Validate()) != 0 {
		t.Fatalf("unexpected missing vars: %v", cfg.Validate())
	}

	// defaults hold when env is absent
	os.Unsetenv("NTFY_URL")
	if FromEnv().NtfyURL != "https://ntfy.sh" {
		t.Fatalf("ntfy default wrong: %q", FromEnv().NtfyURL)
	}
}

func TestValidate_ReportsMissing(t *testing.T) {
	for _, k := range []string{"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "TARGET_USERNAME", "TARGET_SUBREDDIT"} {
		t.Setenv(k, "")
	}
	missing := FromEnv().Validate()
	if len(missing) != 4 {
		t.Fatalf("want 4 missing vars, got %v", missing)
	}
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("POLLING_INTERVAL", "not-a-number")
	t.Setenv("NTFY_PRIORITY", "-3")
	cfg := FromEnv()
	if cfg.PollingInterval != 60*time.Second {
		t.Fatalf("bad POLLING_INTERVAL should default, got %v", cfg.PollingInterval)
	}
	if cfg.NtfyPriority != 5 {
		t.Fatalf("bad NTFY_PRIORITY should default, got %d", cfg.NtfyPriority)
	}
}
