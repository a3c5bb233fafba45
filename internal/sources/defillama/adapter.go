package defillama

import (
	"context"
	"time"

	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/normalize"
	"github.com/haeli05/yields.to/internal/sources"
)

const (
	CacheKey   = "defillama:plasma:yields:top50:v1"
	DefaultTTL = 15 * time.Minute

	chainName = "Plasma"
	topN      = 50
)

// Adapter джерело pools з DeFiLlama yields API:
// фільтр по Plasma, сортування за TVL, обрізка до top-50
type Adapter struct {
	client *Client
	cache  *cache.Cache
	logger *logger.Logger
}

// NewAdapter створює новий adapter
func NewAdapter(client *Client, kv *cache.Cache, log *logger.Logger) *Adapter {
	return &Adapter{
		client: client,
		cache:  kv,
		logger: log.WithPrefix("DEFILLAMA"),
	}
}

// Name повертає ім'я джерела
func (a *Adapter) Name() string {
	return models.SourceDefiLlama
}

// Load повертає нормалізовані top-50 Plasma pools.
// Другий результат true якщо відповідь з кешу.
func (a *Adapter) Load(ctx context.Context, opts sources.LoadOptions) ([]models.Pool, bool, error) {
	if !opts.Refresh {
		var cached []models.Pool
		if a.cache.GetJSON(ctx, CacheKey, &cached) {
			return cached, true, nil
		}
	}

	raw, err := a.client.GetChainPools(ctx, chainName)
	if err != nil {
		return nil, false, err
	}

	pools := make([]models.Pool, 0, len(raw))
	for _, p := range raw {
		pools = append(pools, a.toPool(p))
	}

	pools = normalize.TopByTVL(pools, topN)

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a.cache.SetJSON(ctx, CacheKey, pools, ttl)

	a.logger.Info("Завантажено %d pools з DeFiLlama", len(pools))
	return pools, false, nil
}

func (a *Adapter) toPool(p Pool) models.Pool {
	return models.Pool{
		Pool:       p.PoolID,
		Source:     models.SourceDefiLlama,
		Project:    p.Project,
		Symbol:     p.Symbol,
		Assets:     normalize.DetectAssets(p.Symbol),
		Category:   normalize.DetectCategory(p.Project),
		TVLUsd:     normalize.NonNegative(p.TVLUsd),
		APY:        normalize.FiniteOrNil(p.APY),
		APYBase:    normalize.FiniteOrNil(p.APYBase),
		APYReward:  normalize.FiniteOrNil(p.APYReward),
		APYPct1d:   normalize.FiniteOrNil(p.APYPct1D),
		APYPct7d:   normalize.FiniteOrNil(p.APYPct7D),
		APYPct30d:  normalize.FiniteOrNil(p.APYPct30D),
		APYMean30d: normalize.FiniteOrNil(p.APYMean30D),
		IL7d:       normalize.FiniteOrNil(p.IL7d),
		VolumeUsd1: normalize.FiniteOrNil(p.Volume1d),
		VolumeUsd7: normalize.FiniteOrNil(p.Volume7d),

		RewardTokens: p.RewardTokens,
	}
}
