package pendle

import (
	"context"
	"strings"
	"time"

	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/normalize"
	"github.com/haeli05/yields.to/internal/sources"
)

const (
	CacheKey   = "pendle:plasma:pools:v2"
	DefaultTTL = 20 * time.Minute
)

// Adapter джерело pools з Pendle markets на Plasma.
// APY приходять частками (0.05 = 5%), множимо на 100;
// нульові значення трактуємо як відсутні.
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
		logger: log.WithPrefix("PENDLE"),
	}
}

// Name повертає ім'я джерела
func (a *Adapter) Name() string {
	return models.SourcePendle
}

// Load повертає нормалізовані Pendle pools.
// Недоступний upstream деградує до порожнього списку без помилки.
func (a *Adapter) Load(ctx context.Context, opts sources.LoadOptions) ([]models.Pool, bool, error) {
	if !opts.Refresh {
		var cached []models.Pool
		if a.cache.GetJSON(ctx, CacheKey, &cached) {
			return cached, true, nil
		}
	}

	markets, err := a.client.GetMarkets(ctx, PlasmaChainID)
	if err != nil {
		a.logger.Warn("Не вдалося завантажити Pendle markets: %v", err)
		return []models.Pool{}, false, nil
	}

	pools := make([]models.Pool, 0, len(markets))
	for _, market := range markets {
		if market.Liquidity.USD <= 0 {
			continue
		}
		pools = append(pools, a.toPool(market))
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a.cache.SetJSON(ctx, CacheKey, pools, ttl)

	a.logger.Info("Завантажено %d pools з Pendle", len(pools))
	return pools, false, nil
}

func (a *Adapter) toPool(market Market) models.Pool {
	symbol := market.Symbol
	if symbol == "" {
		pt := market.PT.Symbol
		if pt == "" {
			pt = "PT"
		}
		underlying := market.UnderlyingAsset.Symbol
		if underlying == "" {
			underlying = "Unknown"
		}
		symbol = pt + "-" + underlying
	}

	return models.Pool{
		Pool:      market.Address,
		Source:    models.SourcePendle,
		Project:   "Pendle",
		Symbol:    symbol,
		Assets:    extractAssets(market),
		Category:  normalize.DetectCategory("pendle"),
		TVLUsd:    normalize.NonNegative(market.Liquidity.USD),
		APY:       percentOrNil(market.AggregatedAPY),
		APYBase:   percentOrNil(market.ImpliedAPY),
		APYReward: percentOrNil(market.UnderlyingRewardAPY),
		APYPct1d:  normalize.FiniteOrNil(market.ImpliedAPYPct1D),
		APYPct7d:  normalize.FiniteOrNil(market.ImpliedAPYPct7D),
		APYPct30d: normalize.FiniteOrNil(market.ImpliedAPYPct30D),
		Expiry:    market.Expiry,
	}
}

// percentOrNil переводить частку у відсотки, нуль означає відсутність
func percentOrNil(fraction float64) *float64 {
	if fraction == 0 {
		return nil
	}
	percent := fraction * 100
	return normalize.FiniteOrNil(&percent)
}

// extractAssets збирає активи market: underlying символ плюс
// PT символ без префікса PT-
func extractAssets(market Market) []string {
	var assets []string

	if market.UnderlyingAsset.Symbol != "" {
		assets = append(assets, market.UnderlyingAsset.Symbol)
	}

	if pt := market.PT.Symbol; pt != "" {
		clean := pt
		if len(pt) > 3 && strings.EqualFold(pt[:3], "PT-") {
			clean = pt[3:]
		}
		if !contains(assets, clean) {
			assets = append(assets, clean)
		}
	}

	if len(assets) == 0 {
		return []string{"Unknown"}
	}
	return assets
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
