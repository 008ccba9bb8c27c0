// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	get := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }

	for _, k := range []string{"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "TARGET_USERNAME", "TARGET_SUBREDDIT"} {
		if get(k) == "" {
			fail(k + " is empty (monitor will refuse to start).")
		}
	}
	ok("reddit credentials and target present")

	if get("DATABASE_PATH") == "" {
		warn("DATABASE_PATH empty — state is in-memory and lost on restart.")
	} else {
		ok("DATABASE_PATH=" + get("DATABASE_PATH"))
	}

	if get("NTFY_TOPIC") == "" {
		warn("NTFY_TOPIC empty; default topic will be used.")
	}

	twilio := strings.EqualFold(get("TWILIO_ENABLED"), "true") || get("TWILIO_ENABLED") == ""
	if twilio {
		for _, k := range []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "TWILIO_TO_NUMBER"} {
			if get(k) == "" {
				warn(k + " empty — escalation calls will be disabled.")
			}
		}
	}

	if get("WEBHOOK_SECRET") == "" {
		warn("WEBHOOK_SECRET empty — acknowledgments are disabled (insecure to leave open).")
	}
	if get("WEBHOOK_URL") == "" {
		warn("WEBHOOK_URL empty — acknowledge actions on pushes will not resolve.")
	}

	ok("preflight passed")
}
