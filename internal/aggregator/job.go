package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/normalize"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/defillama"
)

const (
	chainName    = "Plasma"
	protocolSlug = "plasma-saving-vaults"
	topPoolCount = 50
)

// ErrStorageNotConfigured сховище не налаштоване, синк неможливий
var ErrStorageNotConfigured = errors.New("storage not configured")

// Summary результат одного запуску job: година батчу та
// кількість pools по кожному джерелу
type Summary struct {
	OK       bool           `json:"ok"`
	Upserted string         `json:"upserted"`
	Pools    map[string]int `json:"pools"`
	Failed   []string       `json:"failed,omitempty"`
}

// Job збирає всі джерела в один погодинний батч.
// Кожне джерело ізольоване: падіння одного не валить запуск,
// воно лише потрапляє у список failed.
type Job struct {
	llama     *defillama.Client
	sources   []sources.PoolSource
	snapshots repository.SnapshotRepository
	logger    *logger.Logger
}

// NewJob створює новий aggregation job
func NewJob(llama *defillama.Client, srcs []sources.PoolSource, snapshots repository.SnapshotRepository, log *logger.Logger) *Job {
	return &Job{
		llama:     llama,
		sources:   srcs,
		snapshots: snapshots,
		logger:    log.WithPrefix("AGGREGATOR"),
	}
}

type sourceResult struct {
	name  string
	pools []models.Pool
	err   error
}

// Run виконує повний цикл: fan-out по джерелах і chain/protocol TVL,
// злиття, обрізка top-50, upsert рядків за годину ts
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	if j.snapshots == nil {
		return nil, ErrStorageNotConfigured
	}

	now := time.Now().UTC()
	ts := now.Truncate(time.Hour)

	var (
		wg sync.WaitGroup

		chainSeries    []defillama.ChainChartPoint
		chainErr       error
		protocolSeries []defillama.ChainChartPoint
		protocolErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		chainSeries, chainErr = j.llama.GetChainTVL(ctx, chainName)
	}()
	go func() {
		defer wg.Done()
		protocolSeries, protocolErr = j.llama.GetProtocolTVL(ctx, protocolSlug, chainName)
	}()

	results := make([]sourceResult, len(j.sources))
	for i, source := range j.sources {
		wg.Add(1)
		go func(i int, source sources.PoolSource) {
			defer wg.Done()
			pools, _, err := source.Load(ctx, sources.LoadOptions{Refresh: true})
			results[i] = sourceResult{name: source.Name(), pools: pools, err: err}
		}(i, source)
	}
	wg.Wait()

	summary := &Summary{
		OK:       true,
		Upserted: ts.Format(time.RFC3339),
		Pools:    make(map[string]int),
	}

	if chainErr != nil {
		j.logger.Warn("Chain TVL недоступний: %v", chainErr)
		summary.Failed = append(summary.Failed, "chain-tvl")
	}
	if protocolErr != nil {
		j.logger.Warn("Protocol TVL недоступний: %v", protocolErr)
		summary.Failed = append(summary.Failed, "protocol-tvl")
	}

	// Злиття з дедуплікацією по (pool, source), перший виграє
	var merged []models.Pool
	seen := make(map[string]bool)

	for _, result := range results {
		if result.err != nil {
			j.logger.Warn("Джерело %s впало: %v", result.name, result.err)
			summary.Failed = append(summary.Failed, result.name)
			continue
		}

		count := 0
		for _, pool := range result.pools {
			key := pool.Pool + "|" + pool.Source
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, pool)
			count++
		}
		summary.Pools[result.name] = count
	}

	topPools := normalize.TopByTVL(merged, topPoolCount)

	var latestChainTVL, prevChainTVL float64
	var chainLastDate string
	if n := len(chainSeries); n > 0 {
		latestChainTVL = chainSeries[n-1].TotalLiquidityUSD
		chainLastDate = chainSeries[n-1].DateString()
		if n > 1 {
			prevChainTVL = chainSeries[n-2].TotalLiquidityUSD
		}
	}

	var latestProtocolTVL float64
	if n := len(protocolSeries); n > 0 {
		latestProtocolTVL = protocolSeries[n-1].TotalLiquidityUSD
	}

	aggregate := &models.AggregateSnapshot{
		TS:                   ts,
		ChainLatestTVLUsd:    latestChainTVL,
		ChainPrevTVLUsd:      prevChainTVL,
		ChainLastDate:        chainLastDate,
		ProtocolLatestTVLUsd: latestProtocolTVL,
		TopPools:             topPools,
		UpdatedAt:            now,
	}
	if err := j.snapshots.UpsertAggregate(aggregate); err != nil {
		return nil, err
	}

	rows := make([]models.PoolSnapshot, 0, len(merged))
	for _, pool := range merged {
		rows = append(rows, models.PoolSnapshot{
			TS:        ts,
			Pool:      pool.Pool,
			Source:    pool.Source,
			Chain:     chainName,
			Project:   pool.Project,
			Symbol:    pool.Symbol,
			TVLUsd:    pool.TVLUsd,
			APY:       pool.APY,
			APYBase:   pool.APYBase,
			APYPct30d: pool.APYPct30d,
			UpdatedAt: now,
		})
	}
	if err := j.snapshots.UpsertPools(rows); err != nil {
		return nil, err
	}

	j.logger.Info("Синк завершено: %d pools за %s, failed=%v",
		len(merged), summary.Upserted, summary.Failed)

	return summary, nil
}
