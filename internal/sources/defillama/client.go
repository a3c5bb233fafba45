package defillama

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
	MaxRetries     = 3
	RetryDelay     = 2 * time.Second

	userAgent = "yields.to-aggregator"
)

// Client для роботи з DeFiLlama API (yields.llama.fi + api.llama.fi)
type Client struct {
	yieldsBase string
	apiBase    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient створює новий DeFiLlama API client
func NewClient(yieldsBase, apiBase string, log *logger.Logger) *Client {
	return &Client{
		yieldsBase: yieldsBase,
		apiBase:    apiBase,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: log.WithPrefix("DEFILLAMA"),
	}
}

// GetChainPools отримує pools для конкретного chain
func (c *Client) GetChainPools(ctx context.Context, chain string) ([]Pool, error) {
	url := fmt.Sprintf("%s/pools?chain=%s", c.yieldsBase, chain)

	var response PoolsResponse
	if err := c.doRequest(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to get pools: %w", err)
	}

	// Upstream інколи повертає сусідні chains, фільтруємо строго
	var filtered []Pool
	for _, pool := range response.Data {
		if pool.Chain == chain {
			filtered = append(filtered, pool)
		}
	}

	return filtered, nil
}

// GetChainTVL отримує історичний TVL ланцюга (charts/<chain>)
func (c *Client) GetChainTVL(ctx context.Context, chain string) ([]ChainChartPoint, error) {
	url := fmt.Sprintf("%s/charts/%s", c.apiBase, chain)

	var points []ChainChartPoint
	if err := c.doRequest(ctx, url, &points); err != nil {
		return nil, fmt.Errorf("failed to get chain TVL: %w", err)
	}

	return points, nil
}

// GetProtocolTVL отримує TVL series протоколу на конкретному chain.
// chainTvls.<chain> буває масивом точок або об'єктом {tvl: [...]},
// обидві форми нормалізуються до одного series.
func (c *Client) GetProtocolTVL(ctx context.Context, slug, chain string) ([]ChainChartPoint, error) {
	url := fmt.Sprintf("%s/protocol/%s", c.apiBase, slug)

	var detail protocolDetail
	if err := c.doRequest(ctx, url, &detail); err != nil {
		return nil, fmt.Errorf("failed to get protocol %s: %w", slug, err)
	}

	raw, ok := detail.ChainTvls[chain]
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	var series []ChainChartPoint
	if err := json.Unmarshal(raw, &series); err == nil {
		return series, nil
	}

	var wrapped struct {
		TVL []ChainChartPoint `json:"tvl"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected chainTvls shape for %s: %w", slug, err)
	}

	return wrapped.TVL, nil
}

type protocolDetail struct {
	Name      string                     `json:"name"`
	ChainTvls map[string]json.RawMessage `json:"chainTvls"`
}

// doRequest виконує HTTP запит з retry логікою
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error

	for i := 0; i < MaxRetries; i++ {
		if i > 0 {
			c.logger.Debug("Повтор запиту до %s (спроба %d/%d)", url, i+1, MaxRetries)
			select {
			case <-time.After(RetryDelay * time.Duration(i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			c.logger.Warn("Помилкова відповідь від %s: %s", url, string(body))

			// 4xx не ретраїмо
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			lastErr = fmt.Errorf("failed to unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", MaxRetries, lastErr)
}
