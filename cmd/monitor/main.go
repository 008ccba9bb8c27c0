package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/maxbeyer/postwatch/internal/config"
	"github.com/maxbeyer/postwatch/internal/dispatch"
	"github.com/maxbeyer/postwatch/internal/httpapi"
	"github.com/maxbeyer/postwatch/internal/logging"
	"github.com/maxbeyer/postwatch/internal/notify"
	"github.com/maxbeyer/postwatch/internal/reddit"
	"github.com/maxbeyer/postwatch/internal/scheduler"
	"github.com/maxbeyer/postwatch/internal/store"
	"github.com/maxbeyer/postwatch/internal/store/memory"
	"github.com/maxbeyer/postwatch/internal/store/sqlite"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if missing := cfg.Validate(); len(missing) > 0 {
		logger.Fatal("missing_configuration", zap.Strings("vars", missing))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DatabasePath != "" {
		st, err = sqlite.New(ctx, cfg.DatabasePath, logger)
		if err != nil {
			logger.Fatal("store_open_failed", zap.String("path", cfg.DatabasePath), zap.Error(err))
		}
	} else {
		logger.Warn("store_in_memory", zap.String("hint", "set DATABASE_PATH for durable state"))
		st = memory.New()
	}
	defer st.Close()

	primary := notify.NewNtfy(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyPriority,
		cfg.NtfyTags, cfg.NtfyUsername, cfg.NtfyPassword)

	var secondary notify.Secondary
	if cfg.TwilioEnabled {
		if tw := notify.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken,
			cfg.TwilioFromNumber, cfg.TwilioToNumber); tw != nil {
			secondary = tw
		} else {
			logger.Warn("twilio_unconfigured")
		}
	}

	dcfg := dispatch.Config{}
	if cfg.WebhookEnabled && cfg.WebhookURL != "" && cfg.WebhookSecret != "" {
		dcfg = dispatch.Config{
			AckBaseURL: strings.TrimRight(cfg.WebhookURL, "/") + cfg.WebhookPath,
			AckSecret:  cfg.WebhookSecret,
		}
	}
	dispatcher := dispatch.New(primary, secondary, st, dcfg, logger)

	source := &reddit.Retrying{
		Inner:    reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent),
		Attempts: cfg.FetchAttempts,
		Backoff:  cfg.FetchBackoff,
	}

	poller := &scheduler.Poller{
		Logger:     logger,
		Source:     source,
		Seen:       st,
		Dispatcher: dispatcher,
		TargetUser: cfg.TargetUsername,
		Subreddit:  cfg.TargetSubreddit,
		Limit:      cfg.ListingLimit,
		Interval:   cfg.PollingInterval,
	}

	escalator := &scheduler.Escalator{
		Logger:     logger,
		Pending:    st,
		Dispatcher: dispatcher,
		Deadline:   cfg.FollowupDeadline,
		Interval:   cfg.ScanInterval,
	}

	logger.Info("monitor_starting",
		zap.String("target_user", cfg.TargetUsername),
		zap.String("subreddit", cfg.TargetSubreddit),
		zap.Duration("polling_interval", cfg.PollingInterval),
		zap.Duration("followup_deadline", cfg.FollowupDeadline),
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		escalator.Run(ctx)
	}()

	var srv *http.Server
	if cfg.WebhookEnabled {
		api := httpapi.NewServer(logger, st, cfg.WebhookSecret, cfg.WebhookPath)
		srv = &http.Server{
			Addr:    cfg.WebhookAddr,
			Handler: api.Router(cfg.WebhookRPM, cfg.WebhookBurst),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("ack_listen", zap.String("addr", cfg.WebhookAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ack_server_error", zap.Error(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown_started")

	if srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Warn("ack_shutdown_error", zap.Error(err))
		}
		cancel()
	}

	wg.Wait()
	logger.Info("monitor_stopped")
}
