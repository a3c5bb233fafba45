package pendle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
)

const (
	RequestTimeout = 30 * time.Second

	// Plasma chain id у Pendle API
	PlasmaChainID = 9745
)

// Market один активний market з Pendle API v2
type Market struct {
	Address string `json:"address"`
	ChainID int    `json:"chainId"`
	Symbol  string `json:"symbol"`
	Expiry  string `json:"expiry"`

	PT              Token `json:"pt"`
	YT              Token `json:"yt"`
	SY              Token `json:"sy"`
	UnderlyingAsset Token `json:"underlyingAsset"`

	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`

	ImpliedAPY            float64  `json:"impliedApy"`
	UnderlyingAPY         float64  `json:"underlyingApy"`
	LpAPY                 float64  `json:"lpApy"`
	AggregatedAPY         float64  `json:"aggregatedApy"`
	UnderlyingInterestAPY float64  `json:"underlyingInterestApy"`
	UnderlyingRewardAPY   float64  `json:"underlyingRewardApy"`
	ImpliedAPYPct1D       *float64 `json:"impliedApyPct1D"`
	ImpliedAPYPct7D       *float64 `json:"impliedApyPct7D"`
	ImpliedAPYPct30D      *float64 `json:"impliedApyPct30D"`
}

// Token адреса і символ токена market
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Client для роботи з Pendle RESTful API v2
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient створює новий Pendle API client
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: log.WithPrefix("PENDLE"),
	}
}

// GetMarkets отримує активні markets для chain.
// Відповідь буває масивом або {results: [...]}.
func (c *Client) GetMarkets(ctx context.Context, chainID int) ([]Market, error) {
	url := fmt.Sprintf("%s/v1/%d/markets", c.baseURL, chainID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pendle API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err == nil {
		return markets, nil
	}

	var wrapped struct {
		Results []Market `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal markets: %w", err)
	}

	return wrapped.Results, nil
}
