package defillama

import (
	"fmt"
	"strconv"
)

// PoolsResponse відповідь /pools
type PoolsResponse struct {
	Status string `json:"status"`
	Data   []Pool `json:"data"`
}

// Pool один pool з yields.llama.fi
type Pool struct {
	PoolID     string   `json:"pool"`
	Chain      string   `json:"chain"`
	Project    string   `json:"project"`
	Symbol     string   `json:"symbol"`
	TVLUsd     float64  `json:"tvlUsd"`
	APY        *float64 `json:"apy"`
	APYBase    *float64 `json:"apyBase"`
	APYReward  *float64 `json:"apyReward"`
	APYPct1D   *float64 `json:"apyPct1D"`
	APYPct7D   *float64 `json:"apyPct7D"`
	APYPct30D  *float64 `json:"apyPct30D"`
	APYMean30D *float64 `json:"apyMean30d"`
	IL7d       *float64 `json:"il7d"`
	Volume1d   *float64 `json:"volumeUsd1d"`
	Volume7d   *float64 `json:"volumeUsd7d"`

	Stablecoin   bool     `json:"stablecoin"`
	ILRisk       string   `json:"ilRisk"`
	Exposure     string   `json:"exposure"`
	RewardTokens []string `json:"rewardTokens"`
	PoolMeta     *string  `json:"poolMeta"`
}

// ChainChartPoint одна точка TVL series з api.llama.fi.
// Date буває unix числом або рядком, тому тримаємо як є.
type ChainChartPoint struct {
	Date              interface{} `json:"date"`
	TotalLiquidityUSD float64     `json:"totalLiquidityUSD"`
}

// DateString повертає дату точки як рядок (порожній якщо немає)
func (p ChainChartPoint) DateString() string {
	switch v := p.Date.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
