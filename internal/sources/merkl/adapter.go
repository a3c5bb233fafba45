package merkl

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
	CacheKey   = "merkl:plasma:opportunities:v1"
	DefaultTTL = 15 * time.Minute

	chainName = "plasma"
	maxItems  = 100
)

// Adapter джерело pools з Merkl opportunities на Plasma.
// Merkl може не підтримувати chain — тоді деградуємо до
// порожнього списку без помилки.
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
		logger: log.WithPrefix("MERKL"),
	}
}

// Name повертає ім'я джерела
func (a *Adapter) Name() string {
	return models.SourceMerkl
}

// Load повертає нормалізовані Merkl opportunities
func (a *Adapter) Load(ctx context.Context, opts sources.LoadOptions) ([]models.Pool, bool, error) {
	if !opts.Refresh {
		var cached []models.Pool
		if a.cache.GetJSON(ctx, CacheKey, &cached) {
			return cached, true, nil
		}
	}

	opportunities, err := a.client.GetOpportunities(ctx, chainName, maxItems)
	if err != nil {
		a.logger.Warn("Не вдалося завантажити Merkl opportunities: %v", err)
		return []models.Pool{}, false, nil
	}

	pools := make([]models.Pool, 0, len(opportunities))
	for _, opp := range opportunities {
		pools = append(pools, a.toPool(opp))
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a.cache.SetJSON(ctx, CacheKey, pools, ttl)

	a.logger.Info("Завантажено %d opportunities з Merkl", len(pools))
	return pools, false, nil
}

func (a *Adapter) toPool(opp Opportunity) models.Pool {
	project := opp.Protocol.Name
	if project == "" {
		project = "Merkl"
	}

	symbol := opp.Name
	if symbol == "" {
		var parts []string
		for _, token := range opp.Tokens {
			if token.Symbol != "" {
				parts = append(parts, token.Symbol)
			}
		}
		symbol = strings.Join(parts, "/")
	}

	id := opp.Identifier
	if id == "" {
		id = opp.ID
	}
	if id == "" {
		id = models.GeneratePoolID(models.SourceMerkl, project, symbol)
	}

	var rewardTokens []string
	for _, breakdown := range opp.RewardsRecord.Breakdowns {
		if s := breakdown.Token.Symbol; s != "" {
			rewardTokens = append(rewardTokens, s)
		}
	}

	tvl := 0.0
	if parsed := normalize.ParseNumeric(opp.TVL); parsed != nil {
		tvl = normalize.NonNegative(*parsed)
	}

	return models.Pool{
		Pool:         id,
		Source:       models.SourceMerkl,
		Project:      project,
		Symbol:       symbol,
		Assets:       normalize.DetectAssets(symbol),
		Category:     normalize.DetectCategory(project),
		TVLUsd:       tvl,
		APY:          normalize.ParseNumeric(opp.APR),
		URL:          opp.DepositURL,
		RewardTokens: rewardTokens,
	}
}
