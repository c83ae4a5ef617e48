package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/blanketorder/cmd/blanketorder/cli"
	"github.com/odyssey-erp/blanketorder/internal/app"
	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	blanketorderhttp "github.com/odyssey-erp/blanketorder/internal/blanketorder/http"
	"github.com/odyssey-erp/blanketorder/internal/frappe"
	"github.com/odyssey-erp/blanketorder/internal/fx"
	"github.com/odyssey-erp/blanketorder/internal/i18n"
	"github.com/odyssey-erp/blanketorder/internal/masterdata/companies"
	"github.com/odyssey-erp/blanketorder/internal/observability"
	"github.com/odyssey-erp/blanketorder/internal/party"
	"github.com/odyssey-erp/blanketorder/internal/platform/cache"
	"github.com/odyssey-erp/blanketorder/internal/platform/db"
	"github.com/odyssey-erp/blanketorder/internal/terms"
	"github.com/odyssey-erp/blanketorder/jobs"
)

const usage = `usage:
  blanketorder                         serve the form session API
  blanketorder fx import [--json] FILE import a YAML rate sheet
  blanketorder fx rate --from USD --to INR [--date YYYY-MM-DD] [--side selling|buying]
  blanketorder jobs trigger fx:warmup [YYYY-MM-DD]
  blanketorder jobs stats
`

func main() {
	if app.SkipStartup(nil, "server") {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	if len(args) == 0 || args[0] == "serve" {
		if err := serve(ctx, stop, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}
	switch args[0] {
	case "fx":
		os.Exit(runFX(ctx, cfg, logger, args[1:]))
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args[1:]))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	directory := companies.NewDirectory(companies.NewRepository(pool), cfg.DefaultCurrency)
	if err := directory.Load(ctx); err != nil {
		return fmt.Errorf("load companies: %w", err)
	}

	fxCache := fx.NewCache(redisClient, cfg.FXCacheTTL)
	fxService := fx.NewService(fx.NewRepository(pool), fxCache, logger)
	go func() {
		if err := fxCache.ListenForInvalidation(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("fx cache invalidation listener", slog.Any("error", err))
		}
	}()

	partyService := party.NewService(party.NewRepository(pool))
	termsService := terms.NewService(terms.NewRepository(pool))

	var remote *frappe.Client
	if cfg.FrappeURL != "" {
		remote, err = frappe.NewClient(frappe.Config{
			BaseURL:   cfg.FrappeURL,
			APIKey:    cfg.FrappeAPIKey,
			APISecret: cfg.FrappeAPISecret,
			Timeout:   cfg.FrappeTimeout,
		}, logger)
		if err != nil {
			return err
		}
	}
	lookups, err := app.SelectLookups(cfg, app.Lookups{
		Rates:   fxService,
		Terms:   termsService,
		Fetcher: partyService,
	}, remote)
	if err != nil {
		return err
	}

	controller, err := blanketorder.NewController(blanketorder.Services{
		Parties:   partyService,
		Addresses: partyService,
		Contacts:  partyService,
		Companies: directory,
		Rates:     lookups.Rates,
		Terms:     lookups.Terms,
	}, cfg.Refresh())
	if err != nil {
		return err
	}
	translator, err := i18n.New(cfg.Language)
	if err != nil {
		return err
	}
	runtime := blanketorder.Runtime{
		Controller: controller,
		Fetcher:    lookups.Fetcher,
		Mapper:     lookups.Mapper,
		Translator: translator,
		Observer:   metrics,
		Logger:     logger,
	}

	store := blanketorderhttp.NewStore(cfg.FormSessionTTL, metrics)
	go store.Run(ctx, cfg.FormSweepEvery)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		FormHandler:      blanketorderhttp.NewHandler(logger, runtime, store, termsService),
		CompaniesHandler: companies.NewHandler(logger, directory),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("refresh_mode", string(controller.Mode())),
			slog.String("lookup_backend", cfg.LookupBackend),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	store.CloseAll()
	return nil
}

func runFX(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	fs := flag.NewFlagSet("fx "+args[0], flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print a JSON summary")
	from := fs.String("from", "", "source currency")
	to := fs.String("to", "", "target currency")
	date := fs.String("date", "", "posting date (YYYY-MM-DD)")
	side := fs.String("side", "selling", "selling or buying")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	service := fx.NewService(fx.NewRepository(pool), fx.NewCache(redisClient, cfg.FXCacheTTL), logger)
	ops, err := cli.NewFXOpsCLI(service)
	if err != nil {
		logger.Error("fx cli", slog.Any("error", err))
		return 1
	}
	switch args[0] {
	case "import":
		return ops.ImportCommand(ctx, cli.FXImportOptions{Path: fs.Arg(0), JSONOutput: *jsonOut})
	case "rate":
		return ops.RateCommand(ctx, cli.FXRateOptions{From: *from, To: *to, Date: *date, Side: *side})
	}
	fmt.Fprint(os.Stderr, usage)
	return 2
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		var arg string
		if len(args) > 2 {
			arg = args[2]
		}
		info, err := jobsCLI.Trigger(ctx, args[1], arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	}
	fmt.Fprint(os.Stderr, usage)
	return 2
}
