package main

import (
	"context"
	"log"
	"time"

	"github.com/haeli05/yields.to/internal/aggregator"
	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/config"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/chateau"
	"github.com/haeli05/yields.to/internal/sources/defillama"
	"github.com/haeli05/yields.to/internal/sources/merkl"
	"github.com/haeli05/yields.to/internal/sources/pendle"
	"github.com/haeli05/yields.to/internal/sources/stablewatch"
)

// Одноразовий запуск aggregation job, для cron поза процесом
func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)

	db, err := repository.InitDatabase(cfg.Database, cfg.App)
	if err != nil {
		appLogger.Fatal("Не вдалося підключитися до бази: %v", err)
	}
	if db == nil {
		appLogger.Fatal("База даних не налаштована, синк неможливий")
	}
	defer repository.CloseDatabase(db)

	if err := repository.AutoMigrate(db); err != nil {
		appLogger.Fatal("Міграція не вдалася: %v", err)
	}

	kv := cache.New(appLogger)
	defer kv.Close()

	llamaClient := defillama.NewClient(cfg.Sources.DefiLlamaYieldsBase, cfg.Sources.DefiLlamaAPIBase, appLogger)

	poolSources := []sources.PoolSource{
		defillama.NewAdapter(llamaClient, kv, appLogger),
		pendle.NewAdapter(pendle.NewClient(cfg.Sources.PendleBase, appLogger), kv, appLogger),
		merkl.NewAdapter(merkl.NewClient(cfg.Sources.MerklBase, appLogger), kv, appLogger),
		stablewatch.NewScraper(cfg.Sources.StablewatchBase, kv, appLogger),
		chateau.NewAdapter(chateau.NewClient(cfg.Sources.ChateauBase, appLogger), kv, appLogger),
	}

	job := aggregator.NewJob(llamaClient, poolSources, repository.NewSnapshotRepository(db), appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := job.Run(ctx)
	if err != nil {
		appLogger.Fatal("Синк впав: %v", err)
	}

	appLogger.Info("Синк завершено за %s: %v, failed=%v",
		summary.Upserted, summary.Pools, summary.Failed)
}
