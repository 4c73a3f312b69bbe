package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kerhoff/SmokeBot/internal/api"
	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/internal/handlers"
	"github.com/Kerhoff/SmokeBot/internal/metrics"
	"github.com/Kerhoff/SmokeBot/internal/repository/sqlstore"
	"github.com/Kerhoff/SmokeBot/internal/schema"
	"github.com/Kerhoff/SmokeBot/internal/service"
	"github.com/Kerhoff/SmokeBot/internal/telegram"
	"github.com/Kerhoff/SmokeBot/migrations"
	"github.com/Kerhoff/SmokeBot/pkg/logger"
)

// webhookPath is where Telegram pushes updates when WEBHOOK_URL is set.
const webhookPath = "/telegram/webhook"

func main() {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting SmokeBot...")

	m := metrics.New()

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(migrations.FS); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Reconcile legacy schemas before any handler touches the roster
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := schema.New(db.DB, db.Dialect, l, m).Run(ctx); err != nil {
		l.Errorf("Schema reconciliation failed, continuing on the current schema: %v", err)
	}

	// Repositories
	rosterRepo := sqlstore.NewRosterRepository(db.DB, db.Dialect)
	triggerRepo := sqlstore.NewTriggerRepository(db.DB, db.Dialect)
	ledgerRepo := sqlstore.NewLedgerRepository(db.DB, db.Dialect)
	groupRepo := sqlstore.NewGroupRepository(db.DB, db.Dialect)

	// Service layer
	groups := service.NewGroupRegistry(groupRepo, l)
	if err := groups.Load(ctx); err != nil {
		l.Fatalf("Failed to load broadcast groups: %v", err)
	}

	svc := service.New(l, m, rosterRepo, triggerRepo, ledgerRepo, groups,
		service.Options{Location: cfg.StatsTimezone},
	)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	bot.RegisterObserver(handlers.NewSightingObserver(svc, l))

	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))

	// Announcement handlers
	bot.RegisterCommand("smoke", handlers.NewSmokeHandler(svc, l))
	bot.RegisterCommand("smoke_join", handlers.NewJoinHandler(svc, l))
	bot.RegisterCommand("smoke_leave", handlers.NewLeaveHandler(svc, l))
	bot.RegisterCallback(handlers.ToggleAction, handlers.NewToggleHandler(svc, l))

	// Statistics handlers
	bot.RegisterCommand("smoke_stats", handlers.NewStatsHandler(svc, l))
	bot.RegisterCommand("smoke_top", handlers.NewTopHandler(svc, l))
	bot.RegisterCommand("smoke_history", handlers.NewHistoryHandler(svc, l))

	// Daily call handlers
	bot.RegisterCommand("smoke_auto_on", handlers.NewAutoOnHandler(svc, l))
	bot.RegisterCommand("smoke_auto_off", handlers.NewAutoOffHandler(svc, l))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Start broadcast scheduler
	if cfg.BroadcastAt != "" {
		at, err := service.ParseClock(cfg.BroadcastAt)
		if err != nil {
			l.Fatalf("Invalid BROADCAST_AT: %v", err)
		}
		broadcaster := handlers.NewBroadcaster(svc, bot.API(), l)
		go svc.StartBroadcastScheduler(ctx, at, broadcaster.Broadcast)
	}

	// Start HTTP server for the JSON API
	apiServer := api.NewServer(svc, l)
	if cfg.WebhookURL != "" {
		apiServer.Mount("POST "+webhookPath, bot.WebhookHandler())
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	// Receive updates
	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(cfg.WebhookURL); err != nil {
			l.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	l.Info("SmokeBot started successfully")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	l.Info("Shutting down HTTP servers...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("Metrics server shutdown: %v", err)
	}

	l.Info("SmokeBot stopped")
}
