package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/ai"
	"github.com/selivandex/portfolio-digest/internal/adapters/clickhouse"
	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/internal/adapters/database"
	"github.com/selivandex/portfolio-digest/internal/adapters/email"
	"github.com/selivandex/portfolio-digest/internal/adapters/news"
	redisAdapter "github.com/selivandex/portfolio-digest/internal/adapters/redis"
	"github.com/selivandex/portfolio-digest/internal/adapters/telegram"
	"github.com/selivandex/portfolio-digest/internal/composer"
	"github.com/selivandex/portfolio-digest/internal/delivery"
	"github.com/selivandex/portfolio-digest/internal/digest"
	"github.com/selivandex/portfolio-digest/internal/narrative"
	"github.com/selivandex/portfolio-digest/internal/scoring"
	"github.com/selivandex/portfolio-digest/internal/server"
	"github.com/selivandex/portfolio-digest/internal/subscribers"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
	"github.com/selivandex/portfolio-digest/pkg/worker"
)

type flags struct {
	once         bool
	dryRun       bool
	rollback     bool
	templatesDir string
}

func main() {
	var f flags
	flag.BoolVar(&f.once, "once", false, "run the digest once and exit")
	flag.BoolVar(&f.dryRun, "dry-run", false, "print emails to the log and keep the delivery log in memory")
	flag.BoolVar(&f.rollback, "rollback", false, "roll back the last migration and exit")
	flag.StringVar(&f.templatesDir, "templates", "", "load email templates from this directory instead of the embedded ones")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("portfolio digest starting",
		zap.Bool("once", f.once),
		zap.Bool("dry_run", f.dryRun),
		zap.String("schedule", cfg.Digest.CronSchedule),
		zap.String("integrations", cfg.String()),
	)

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if f.rollback {
		return database.RollbackMigration(db.Conn(), cfg.Database.MigrationsDir)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient := initRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	app, err := buildApp(ctx, cfg, db, redisClient, f)
	if err != nil {
		return err
	}
	defer app.close()

	if f.once {
		return runOnce(ctx, app.job)
	}

	return serve(ctx, cfg, db, redisClient, app)
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File,
		logger.WithService("portfolio-digest"),
		logger.WithFormat(cfg.Logging.Format),
	); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initRedis connects when configured; a failed connection disables the cache and the run lock
func initRedis(ctx context.Context, cfg *config.Config) *redisAdapter.Client {
	if !cfg.Redis.Enabled() {
		logger.Info("redis disabled, runs are not locked and news is not cached")
		return nil
	}

	client, err := redisAdapter.New(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("redis not available, continuing without it", zap.Error(err))
		return nil
	}
	return client
}

// app holds everything built for one process
type app struct {
	job       *digest.Job
	retention *delivery.RetentionWorker
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redisAdapter.Client, f flags) (*app, error) {
	a := &app{}

	deliveryRepo := delivery.NewRepository(db)
	a.retention = delivery.NewRetentionWorker(deliveryRepo, cfg.Digest.LogRetentionDays)

	var deliveryLog digest.DeliveryLog = deliveryRepo
	var sender email.Sender = email.Select(&cfg.Email)
	if f.dryRun {
		deliveryLog = delivery.NewMemoryStore()
		sender = email.NewConsoleSender()
	}

	scorer, err := initScoring(ctx, cfg)
	if err != nil {
		return nil, err
	}

	comp, err := composer.New(cfg.Digest.AppURL, f.templatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	opts := []digest.Option{
		digest.WithPacer(digest.NewPacer(cfg.Digest.SendDelay, cfg.Digest.SendRatePerSec)),
		digest.WithDefaultLocation(cfg.Digest.Location()),
	}

	if sink := initClickHouseSink(ctx, cfg); sink != nil {
		opts = append(opts, digest.WithObserver(sink))
		a.closers = append(a.closers, sink.Close)
	}

	var notifier *telegram.Notifier
	if cfg.Telegram.Enabled() {
		notifier, err = telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			logger.Warn("failed to initialize telegram notifier", zap.Error(err))
			notifier = nil
		} else {
			opts = append(opts, digest.WithObserver(notifier))
		}
	}

	orchestrator := digest.New(digest.Deps{
		Subscribers: subscribers.NewRepository(db),
		News:        initNewsSource(cfg, redisClient),
		Scorer:      scorer,
		Composer:    comp,
		Sender:      sender,
		Log:         deliveryLog,
	}, opts...)

	var lock digest.Locker = redisAdapter.NoopLock{}
	if redisClient != nil {
		lock = redisClient.RunLock()
	}

	if notifier != nil {
		a.job = digest.NewJob(orchestrator, lock, notifier)
	} else {
		a.job = digest.NewJob(orchestrator, lock)
	}

	return a, nil
}

// initScoring picks the narrative mode once for the process
func initScoring(ctx context.Context, cfg *config.Config) (*scoring.Engine, error) {
	providers := ai.NewProviders(ctx, &cfg.AI)
	delegate := ai.Pick(providers, cfg.AI.Provider)

	var completer narrative.Completer
	if delegate != nil {
		completer = delegate
	}

	generator, err := narrative.Select(completer, narrative.DefaultDelegateTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to select narrative generator: %w", err)
	}

	engine := scoring.NewEngine(generator,
		scoring.WithMinScore(cfg.Digest.MinScore),
		scoring.WithMaxEvents(cfg.Digest.MaxEvents),
	)

	logger.Info("scoring engine ready",
		zap.String("mode", engine.Mode()),
		zap.Int("ai_providers", len(providers)),
	)
	return engine, nil
}

// initNewsSource builds NewsAPI -> RSS -> stub, cached in Redis when available
func initNewsSource(cfg *config.Config, redisClient *redisAdapter.Client) digest.NewsSource {
	fallback := news.NewFallbackSource(
		news.NewNewsAPIProvider(cfg.News.APIKey, cfg.News.APIURL, cfg.News.Timeout),
		news.NewRSSProvider(cfg.News.RSSFeeds, cfg.News.Timeout),
		news.NewStubProvider(),
	)

	logger.Info("news providers configured",
		zap.String("providers", strings.Join(fallback.Providers(), ",")),
	)

	if redisClient == nil {
		return fallback
	}
	return news.NewCachedSource(fallback, redisClient, cfg.News.CacheTTL)
}

// initClickHouseSink connects the optional run metrics sink
func initClickHouseSink(ctx context.Context, cfg *config.Config) *clickhouse.Sink {
	if !cfg.ClickHouse.Enabled() {
		return nil
	}

	ch, err := database.NewClickHouse(ctx, cfg.ClickHouse.GetDSN())
	if err != nil {
		logger.Warn("ClickHouse not available, run metrics disabled", zap.Error(err))
		return nil
	}

	repo := clickhouse.NewRepository(ch.DB())
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("failed to prepare ClickHouse schema, run metrics disabled", zap.Error(err))
		ch.Close()
		return nil
	}

	logger.Info("ClickHouse connection established",
		zap.String("host", cfg.ClickHouse.Host),
		zap.String("database", cfg.ClickHouse.Database),
	)

	return clickhouse.NewSink(repo, cfg.ClickHouse.BatchSize, cfg.ClickHouse.FlushInterval)
}

func runOnce(ctx context.Context, job *digest.Job) error {
	fmt.Println(strings.Repeat("═", 50))
	fmt.Println("☕ Portfolio Digest")
	fmt.Printf("   %s\n", time.Now().Format(time.RFC1123))
	fmt.Println(strings.Repeat("═", 50))

	stats, err := job.Trigger(ctx)
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}

	printStats(stats)
	return nil
}

func printStats(stats models.RunStats) {
	fmt.Println("\n✅ Digest complete.")
	fmt.Printf("   Processed : %d\n", stats.Processed)
	fmt.Printf("   Sent      : %d\n", stats.Sent)
	fmt.Printf("   Urgent    : %d\n", stats.UrgentSent)
	fmt.Printf("   Errors    : %d\n", stats.Errors)
}

// newScheduler reads CRON_SCHEDULE in DEFAULT_TIMEZONE, the same zone
// subscribers without a valid timezone fall back to
func newScheduler(cfg *config.Config, job worker.Worker) (*worker.CronWorker, error) {
	return worker.NewCronWorker(job, cfg.Digest.CronSchedule, cfg.Digest.RunTimeout, cfg.Digest.Location())
}

// serve runs the scheduler and the HTTP server until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redisAdapter.Client, a *app) error {
	cronWorker, err := newScheduler(cfg, a.job)
	if err != nil {
		return err
	}

	workers := worker.NewWorkerGroup(ctx)
	workers.AddBackground(cronWorker)
	workers.Add(a.retention, 24*time.Hour)
	workers.Start()

	checks := map[string]server.Checker{"database": db}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	srv := server.NewServer(cfg.Digest.HTTPPort, a.job, cfg.Digest.CronSecret, checks)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()
	srv.SetReady(true)

	logger.Info("☕ digest scheduler ready",
		zap.String("schedule", cfg.Digest.CronSchedule),
		zap.Time("next_run", cronWorker.Next()),
		zap.Int("http_port", cfg.Digest.HTTPPort),
	)

	<-ctx.Done()

	return shutdown(srv, workers)
}

// shutdown stops accepting triggers, then waits for a run in progress
func shutdown(srv *server.Server, workers *worker.WorkerGroup) error {
	logger.Info("🛑 Shutdown signal received, starting graceful shutdown...")

	srv.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("http server stop error", zap.Error(err))
	}

	workers.Stop(20 * time.Second)

	select {
	case <-shutdownCtx.Done():
		logger.Warn("⚠️ shutdown timeout exceeded")
		return fmt.Errorf("graceful shutdown timeout")
	default:
		logger.Info("✅ shutdown completed successfully")
	}

	return nil
}
