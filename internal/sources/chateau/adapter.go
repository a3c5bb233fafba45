package chateau

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
	CacheKey   = "chateau:metrics:v1"
	DefaultTTL = 20 * time.Minute
)

// Adapter джерело метрик Chateau Capital. На відміну від інших
// джерел віддає один документ метрик, який конвертується в один
// schUSD pool для спільного батчу.
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
		logger: log.WithPrefix("CHATEAU"),
	}
}

// Name повертає ім'я джерела
func (a *Adapter) Name() string {
	return models.SourceChateau
}

// Metrics повертає документ метрик, кешований на 20 хвилин
func (a *Adapter) Metrics(ctx context.Context, opts sources.LoadOptions) (*Metrics, bool, error) {
	if !opts.Refresh {
		var cached Metrics
		if a.cache.GetJSON(ctx, CacheKey, &cached) {
			return &cached, true, nil
		}
	}

	metrics, err := a.client.GetMetrics(ctx)
	if err != nil {
		return nil, false, err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a.cache.SetJSON(ctx, CacheKey, metrics, ttl)

	return metrics, false, nil
}

// Load повертає метрики як один нормалізований pool
func (a *Adapter) Load(ctx context.Context, opts sources.LoadOptions) ([]models.Pool, bool, error) {
	metrics, cached, err := a.Metrics(ctx, opts)
	if err != nil {
		a.logger.Warn("Не вдалося завантажити Chateau metrics: %v", err)
		return []models.Pool{}, false, nil
	}

	return []models.Pool{ToPool(metrics)}, cached, nil
}

// ToPool конвертує документ метрик у schUSD pool.
// IRR приходять частками, переводимо у відсотки. TVL рахуємо
// як supply × NAV, fallback до chUsdTvl.
func ToPool(metrics *Metrics) models.Pool {
	tvl := metrics.SchUsdSupply * metrics.SchUsdNav
	if tvl <= 0 {
		tvl = metrics.ChUsdTvl
	}

	apy := metrics.SchUsdFourWeekIRR * 100
	apyBase := metrics.SchUsdOneWeekIRR * 100

	return models.Pool{
		Pool:     models.GeneratePoolID(models.SourceChateau, "Chateau Capital", "schUSD"),
		Source:   models.SourceChateau,
		Project:  "Chateau Capital",
		Symbol:   "schUSD",
		Assets:   []string{"schUSD"},
		Category: "RWA",
		TVLUsd:   normalize.NonNegative(tvl),
		APY:      normalize.FiniteOrNil(&apy),
		APYBase:  normalize.FiniteOrNil(&apyBase),
		URL:      "https://app.chateau.capital",
	}
}
