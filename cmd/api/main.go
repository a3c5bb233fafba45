package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haeli05/yields.to/internal/aggregator"
	"github.com/haeli05/yields.to/internal/api"
	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/config"
	"github.com/haeli05/yields.to/internal/health"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/chateau"
	"github.com/haeli05/yields.to/internal/sources/defillama"
	"github.com/haeli05/yields.to/internal/sources/merkl"
	"github.com/haeli05/yields.to/internal/sources/pendle"
	"github.com/haeli05/yields.to/internal/sources/stablewatch"
	"github.com/haeli05/yields.to/internal/sources/sumcap"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("🚀 Запуск Plasma yield агрегатора...")
	appLogger.Info("Environment: %s", cfg.App.Environment)

	if cfg.App.Environment == "development" {
		appLogger.Debug("%s", cfg.SafeString())
	}

	db, err := repository.InitDatabase(cfg.Database, cfg.App)
	if err != nil {
		appLogger.Fatal("Не вдалося підключитися до бази: %v", err)
	}

	var (
		snapshotRepo repository.SnapshotRepository
		sumcapRepo   repository.SumcapRepository
		healthRepo   repository.HealthRepository
		projectRepo  repository.ProjectRepository
	)
	if db != nil {
		if err := repository.AutoMigrate(db); err != nil {
			appLogger.Fatal("Міграція не вдалася: %v", err)
		}
		appLogger.Info("✅ База даних підключена")

		snapshotRepo = repository.NewSnapshotRepository(db)
		sumcapRepo = repository.NewSumcapRepository(db)
		healthRepo = repository.NewHealthRepository(db)
		projectRepo = repository.NewProjectRepository(db)

		defer repository.CloseDatabase(db)
	} else {
		appLogger.Warn("⚠️  База даних не налаштована, синк-шляхи вимкнено")
	}

	kv := cache.New(appLogger)
	defer kv.Close()

	llamaClient := defillama.NewClient(cfg.Sources.DefiLlamaYieldsBase, cfg.Sources.DefiLlamaAPIBase, appLogger)
	llamaAdapter := defillama.NewAdapter(llamaClient, kv, appLogger)
	pendleAdapter := pendle.NewAdapter(pendle.NewClient(cfg.Sources.PendleBase, appLogger), kv, appLogger)
	merklAdapter := merkl.NewAdapter(merkl.NewClient(cfg.Sources.MerklBase, appLogger), kv, appLogger)
	chateauAdapter := chateau.NewAdapter(chateau.NewClient(cfg.Sources.ChateauBase, appLogger), kv, appLogger)
	scraper := stablewatch.NewScraper(cfg.Sources.StablewatchBase, kv, appLogger)
	sumcapClient := sumcap.NewClient(cfg.Sources.SumcapBase, appLogger)

	poolSources := []sources.PoolSource{
		llamaAdapter,
		pendleAdapter,
		merklAdapter,
		scraper,
		chateauAdapter,
	}

	job := aggregator.NewJob(llamaClient, poolSources, snapshotRepo, appLogger)
	probe := health.NewProbe(cfg.Sources, healthRepo, appLogger)

	var scheduler *aggregator.Scheduler
	if cfg.Aggregator.Enabled && db != nil {
		scheduler = aggregator.NewScheduler(job, appLogger)
		if err := scheduler.Start(cfg.Aggregator.Schedule); err != nil {
			appLogger.Fatal("Не вдалося запустити scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	server := api.NewServer(api.Dependencies{
		Config: cfg,
		Logger: appLogger,

		Job:          job,
		Probe:        probe,
		SumcapClient: sumcapClient,

		DefiLlama:   llamaAdapter,
		Pendle:      pendleAdapter,
		Chateau:     chateauAdapter,
		Stablewatch: scraper,

		Snapshots: snapshotRepo,
		Sumcap:    sumcapRepo,
		Projects:  projectRepo,
	})

	go func() {
		if err := server.Start(); err != nil {
			appLogger.Fatal("Не вдалося запустити сервер: %v", err)
		}
	}()

	appLogger.Info("✅ Сервер запущено")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("🛑 Зупинка агрегатора...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.Fatal("Примусова зупинка сервера: %v", err)
	}

	appLogger.Info("✅ Агрегатор зупинено")
}
