package merkl

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

	userAgent = "yields.to-aggregator"
)

// Opportunity одна incentive-кампанія з Merkl API v4.
// apr і tvl приходять то числом, то рядком, тому interface{}.
type Opportunity struct {
	ID         string      `json:"id"`
	Identifier string      `json:"identifier"`
	Name       string      `json:"name"`
	Status     string      `json:"status"`
	APR        interface{} `json:"apr"`
	TVL        interface{} `json:"tvl"`
	ChainID    int         `json:"chainId"`
	DepositURL string      `json:"depositUrl"`

	Protocol struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"protocol"`

	Tokens []struct {
		Symbol string `json:"symbol"`
	} `json:"tokens"`

	RewardsRecord struct {
		Breakdowns []struct {
			Token struct {
				Symbol string `json:"symbol"`
			} `json:"token"`
		} `json:"breakdowns"`
	} `json:"rewardsRecord"`
}

// Client для роботи з Merkl API v4
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient створює новий Merkl API client
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: log.WithPrefix("MERKL"),
	}
}

// GetOpportunities отримує живі opportunities для chain
func (c *Client) GetOpportunities(ctx context.Context, chainName string, items int) ([]Opportunity, error) {
	url := fmt.Sprintf("%s/v4/opportunities/?items=%d&onlyLive=true&chainName=%s",
		c.baseURL, items, chainName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("merkl API returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var opportunities []Opportunity
	if err := json.Unmarshal(body, &opportunities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal opportunities: %w", err)
	}

	return opportunities, nil
}
