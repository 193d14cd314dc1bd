package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/reviewgate/reviewgate/internal/adapter/driven/activityfile"
	githubadapter "github.com/reviewgate/reviewgate/internal/adapter/driven/github"
	"github.com/reviewgate/reviewgate/internal/adapter/driven/llm"
	smtpadapter "github.com/reviewgate/reviewgate/internal/adapter/driven/smtp"
	sqliteadapter "github.com/reviewgate/reviewgate/internal/adapter/driven/sqlite"
	httphandler "github.com/reviewgate/reviewgate/internal/adapter/driving/http"
	"github.com/reviewgate/reviewgate/internal/application"
	"github.com/reviewgate/reviewgate/internal/config"
	"github.com/reviewgate/reviewgate/internal/domain/model"
	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Best-effort .env autoload for local development.
	_ = godotenv.Load()

	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"queue_mode", cfg.QueueMode,
		"base_branch", cfg.BaseBranch,
		"head_branch", cfg.HeadBranch,
		"allowed_per_day", cfg.AllowedPerDay(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Read the system prompt once at startup.
	promptBytes, err := os.ReadFile(cfg.SystemPromptPath)
	if err != nil {
		return err
	}
	systemPrompt := string(promptBytes)

	// 4. Open the activity store.
	var store driven.ActivityStore
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("database opened", "path", cfg.DBPath)
		store = sqliteadapter.NewActivityRepo(db)
	case config.StoreFile:
		store = activityfile.New(cfg.ActivityFilePath)
		slog.Info("activity file store selected", "path", cfg.ActivityFilePath)
	}

	// 5. Wire driven adapters.
	var notifier driven.Notifier
	if cfg.AlertingEnabled() {
		notifier = smtpadapter.NewNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.AlertRecipient)
		slog.Info("email alerting enabled", "host", cfg.SMTPHost, "recipient", cfg.AlertRecipient)
	} else {
		slog.Info("email alerting disabled")
	}

	ghClient := githubadapter.NewClient(cfg.GitHubToken)
	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModels, cfg.LLMTimeout, slog.Default())

	// 6. Wire application services.
	policy := model.QuotaPolicy{
		MaxRequestsPerDay: cfg.MaxRequestsPerDay,
		TeamCount:         cfg.TeamCount,
		RequestsPerTeam:   cfg.RequestsPerTeam,
		Cooldown:          cfg.Cooldown,
	}
	admission := application.NewAdmissionService(store, policy, notifier, slog.Default())
	reviews := application.NewReviewService(
		admission,
		ghClient,
		generator,
		ghClient,
		notifier,
		cfg.HeadBranch,
		cfg.TokenCeiling,
		systemPrompt,
		slog.Default(),
	)

	// 7. Start the throttled worker in queued mode.
	var queue *application.ThrottledQueue
	if cfg.QueueMode == config.QueueModeQueued {
		queue = application.NewThrottledQueue(cfg.MinInterval, reviews.Process, slog.Default())
		go queue.Start(ctx)
		slog.Info("throttled worker started", "min_interval", cfg.MinInterval)
	}

	// 8. Create HTTP handler and server.
	handler := httphandler.NewHandler(reviews, queue, cfg.WebhookSecret, cfg.BaseBranch, cfg.HeadBranch, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("reviewgate started", "listen_addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 9. Wait for shutdown signal or server failure.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	// 10. Graceful shutdown with a 10s drain window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
