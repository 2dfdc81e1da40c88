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

	"github.com/leadpilot/leadsync/internal/auth"
	"github.com/leadpilot/leadsync/internal/config"
	"github.com/leadpilot/leadsync/internal/events"
	"github.com/leadpilot/leadsync/internal/httpapi"
	"github.com/leadpilot/leadsync/internal/leads"
	"github.com/leadpilot/leadsync/internal/provider"
	"github.com/leadpilot/leadsync/internal/runlog"
	"github.com/leadpilot/leadsync/internal/syncer"
	"github.com/leadpilot/leadsync/pkg/logger"
	"github.com/leadpilot/leadsync/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load() // best-effort; real deploys set env directly

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := leads.NewSQLStore(db)
	runs := runlog.NewService(runlog.NewSQLRepo(db))

	orch := syncer.New(store, provider.New, syncer.Options{
		PageSize:     cfg.Sync.PageSize,
		PageDelay:    cfg.Sync.PageDelay,
		MaxRetries:   cfg.Sync.MaxRetries,
		RetryBackoff: cfg.Sync.RetryBackoff,
		Workers:      cfg.Sync.Workers,
		FetchEmails:  cfg.Sync.FetchEmails,
		LockTTL:      cfg.Sync.LockTTL,
	}, log)
	orch.Runs = runs
	orch.Locker = syncer.NewRedisLocker(rdb)
	orch.Cache = syncer.NewRedisSummaryCache(rdb)

	// Event publishing stays off when AMQP is not configured.
	if cfg.AMQP.URL != "" {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			log.Error("amqp dial failed", "err", err)
			os.Exit(1)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			log.Error("amqp channel failed", "err", err)
			os.Exit(1)
		}
		pub, err := events.NewAMQPPublisher(ch)
		if err != nil {
			log.Error("amqp exchange declare failed", "err", err)
			os.Exit(1)
		}
		orch.Events = pub
	}

	sched, err := syncer.NewScheduler(cfg.Sync.Cron, orch, log)
	if err != nil {
		log.Error("scheduler init failed", "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Store:   store,
		Orch:    orch,
		Runs:    runs,
		Cache:   orch.Cache,
		Factory: provider.New,
	}
	registerRoutes(r, h, db, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,

		// Sync triggers run synchronously; a full pass over a large campaign
		// can take minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
