package chateau

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
)

const RequestTimeout = 30 * time.Second

// Metrics документ метрик Chateau Capital (chUSD / schUSD)
type Metrics struct {
	TotalReserves        float64 `json:"totalReserves"`
	FundsInTransit       float64 `json:"fundsInTransit"`
	ProtocolBackingRatio float64 `json:"protocolBackingRatio"`
	YtdSharpeRatio       float64 `json:"ytdSharpeRatio"`
	ChUsdPrice           float64 `json:"chUsdPrice"`
	SchUsdPrice          float64 `json:"schUsdPrice"`
	ChUsdSupply          float64 `json:"chUsdSupply"`
	SchUsdSupply         float64 `json:"schUsdSupply"`
	SchUsdOneWeekIRR     float64 `json:"schUsdOneWeekIRR"`
	SchUsdFourWeekIRR    float64 `json:"schUsdFourWeekIRR"`
	SchUsdFiftyTwoWkIRR  float64 `json:"schUsdFiftyTwoWeekIRR"`
	SchUsdNav            float64 `json:"schUsdNav"`
	ChUsdTvl             float64 `json:"chUsdTvl"`
	Timestamp            string  `json:"timestamp"`
	LastUpdated          int64   `json:"lastUpdated"`
}

// Client для роботи з Chateau Capital metrics API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient створює новий Chateau API client
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: log.WithPrefix("CHATEAU"),
	}
}

// GetMetrics отримує поточний документ метрик
func (c *Client) GetMetrics(ctx context.Context) (*Metrics, error) {
	url := fmt.Sprintf("%s/api/metrics", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chateau API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var metrics Metrics
	if err := json.Unmarshal(body, &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	return &metrics, nil
}
