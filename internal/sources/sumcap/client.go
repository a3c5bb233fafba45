package sumcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
)

const (
	RequestTimeout = 30 * time.Second

	// Пауза між послідовними запитами при повному синку
	politenessDelay = 200 * time.Millisecond

	userAgent = "yields.to-aggregator"
)

// SyncPaths всі endpoints, які знімаються при повному синку
var SyncPaths = []string{
	"/api/block-data",
	"/api/chain-flows",
	"/api/contract-data",
	"/api/dex-data",
	"/api/net-flows",
	"/api/project-flows",
	"/api/projects",
	"/api/public-sale",
	"/api/stablecoin-supply",
	"/api/stablecoin-users",
	"/api/stablecoin-volume",
	"/api/token-dex-data",
	"/api/transactions",
	"/api/usdt0-supply",
	"/api/users",
	"/api/xpl-brackets",
	"/api/xpl-holders",
	"/api/xpl-price",
	"/api/xpl-top-15",
}

// FetchResult результат одного запиту до SumCap
type FetchResult struct {
	Path   string
	Status int
	OK     bool
	JSON   json.RawMessage
	URL    string
}

// MetricsData агреговані chain-метрики з чотирьох endpoints
type MetricsData struct {
	Users        []json.RawMessage `json:"users"`
	Transactions []json.RawMessage `json:"transactions"`
	Contracts    []json.RawMessage `json:"contracts"`
	Blocks       []json.RawMessage `json:"blocks"`
	Errors       []string          `json:"errors,omitempty"`
	FetchedAt    string            `json:"fetchedAt"`
}

// Client для роботи з SumCap Plasma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient створює новий SumCap API client
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: log.WithPrefix("SUMCAP"),
	}
}

// fetch виконує один запит; не-2xx і зламаний JSON не є помилкою,
// результат несе статус і сирий payload як є
func (c *Client) fetch(ctx context.Context, path string) (FetchResult, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{Path: path, URL: url}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{Path: path, URL: url}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	result := FetchResult{
		Path:   path,
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		URL:    url,
	}

	if json.Valid(body) {
		result.JSON = body
	}

	return result, nil
}

// FetchAll послідовно знімає всі SyncPaths з паузою між запитами.
// Помилка мережі дає результат зі статусом 0, синк продовжується.
func (c *Client) FetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, 0, len(SyncPaths))

	for i, path := range SyncPaths {
		if i > 0 {
			select {
			case <-time.After(politenessDelay):
			case <-ctx.Done():
				return results
			}
		}

		result, err := c.fetch(ctx, path)
		if err != nil {
			c.logger.Warn("Запит %s не вдався: %v", path, err)
		}
		results = append(results, result)
	}

	return results
}

// Metrics паралельно знімає users/transactions/contracts/blocks.
// Окрема помилка потрапляє в Errors, а не валить весь запит.
func (c *Client) Metrics(ctx context.Context) *MetricsData {
	endpoints := []struct {
		key  string
		path string
	}{
		{"users", "/api/users"},
		{"transactions", "/api/transactions"},
		{"contracts", "/api/contract-data"},
		{"blocks", "/api/block-data"},
	}

	type endpointResult struct {
		key  string
		data []json.RawMessage
		err  error
	}

	results := make([]endpointResult, len(endpoints))

	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		wg.Add(1)
		go func(i int, key, path string) {
			defer wg.Done()

			result, err := c.fetch(ctx, path)
			if err == nil && !result.OK {
				err = fmt.Errorf("HTTP %d", result.Status)
			}
			if err != nil {
				results[i] = endpointResult{key: key, err: err}
				return
			}

			var envelope struct {
				Data []json.RawMessage `json:"data"`
			}
			if jsonErr := json.Unmarshal(result.JSON, &envelope); jsonErr != nil {
				results[i] = endpointResult{key: key, err: jsonErr}
				return
			}

			results[i] = endpointResult{key: key, data: envelope.Data}
		}(i, endpoint.key, endpoint.path)
	}
	wg.Wait()

	data := &MetricsData{
		Users:        []json.RawMessage{},
		Transactions: []json.RawMessage{},
		Contracts:    []json.RawMessage{},
		Blocks:       []json.RawMessage{},
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	for _, result := range results {
		if result.err != nil {
			data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", result.key, result.err))
			continue
		}
		if result.data == nil {
			continue
		}
		switch result.key {
		case "users":
			data.Users = result.data
		case "transactions":
			data.Transactions = result.data
		case "contracts":
			data.Contracts = result.data
		case "blocks":
			data.Blocks = result.data
		}
	}

	return data
}
