package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leadpilot/leadsync/internal/config"
	"github.com/leadpilot/leadsync/internal/leads"
	"github.com/leadpilot/leadsync/internal/provider"
	"github.com/leadpilot/leadsync/internal/runlog"
	"github.com/leadpilot/leadsync/internal/syncer"
	"github.com/leadpilot/leadsync/pkg/logger"
	"github.com/leadpilot/leadsync/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// syncctl runs one sync pass from the command line and prints the summary as
// JSON. Exit code 0 means every campaign in scope finished clean; 1 means the
// pass could not start; 2 means it finished with campaign errors.
func main() {
	campaignID := flag.String("campaign", "", "sync a single campaign id (default: all syncable campaigns)")
	noLock := flag.Bool("no-lock", false, "skip redis run locks (local debugging only)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("config load failed", err)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		fatal("postgres init failed", err)
	}
	defer db.Close()

	store := leads.NewSQLStore(db)

	orch := syncer.New(store, provider.New, syncer.Options{
		PageSize:     cfg.Sync.PageSize,
		PageDelay:    cfg.Sync.PageDelay,
		MaxRetries:   cfg.Sync.MaxRetries,
		RetryBackoff: cfg.Sync.RetryBackoff,
		Workers:      cfg.Sync.Workers,
		FetchEmails:  cfg.Sync.FetchEmails,
		LockTTL:      cfg.Sync.LockTTL,
	}, log)
	orch.Runs = runlog.NewService(runlog.NewSQLRepo(db))

	if !*noLock {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			fatal("redis init failed", err)
		}
		defer rdb.Close()
		orch.Locker = syncer.NewRedisLocker(rdb)
		orch.Cache = syncer.NewRedisSummaryCache(rdb)
	}

	summary, err := orch.Run(ctx, syncer.Scope{CampaignID: *campaignID})
	if err != nil {
		fatal("sync pass failed", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fatal("summary encode failed", err)
	}
	fmt.Println(string(out))

	if len(summary.Errors) > 0 {
		os.Exit(2)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
