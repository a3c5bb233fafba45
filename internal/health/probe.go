package health

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/haeli05/yields.to/internal/config"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/repository"
)

const probeTimeout = 15 * time.Second

// maxNoteLen обрізка тіла відповіді в нотатці
const maxNoteLen = 180

// Probe виконує best-effort перевірки доступності кожного upstream.
// Результати записуються у сховище якщо воно налаштоване,
// але відповідь не залежить від успіху запису.
type Probe struct {
	sources    config.SourcesConfig
	repo       repository.HealthRepository
	httpClient *http.Client
	logger     *logger.Logger
}

// NewProbe створює новий probe
func NewProbe(sources config.SourcesConfig, repo repository.HealthRepository, log *logger.Logger) *Probe {
	return &Probe{
		sources: sources,
		repo:    repo,
		httpClient: &http.Client{
			Timeout: probeTimeout,
		},
		logger: log.WithPrefix("HEALTH"),
	}
}

// tryFetch повертає відповідь або nil, ніколи не панікує і не кидає
func (p *Probe) tryFetch(ctx context.Context, url string) *http.Response {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil
	}
	return resp
}

func statusOf(resp *http.Response) *int {
	if resp == nil {
		return nil
	}
	status := resp.StatusCode
	return &status
}

func isOK(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

// RunChecks проходить по всіх відомих upstream
func (p *Probe) RunChecks(ctx context.Context) []models.HealthCheck {
	var checks []models.HealthCheck

	// DeFiLlama: Plasma chain yields
	{
		url := p.sources.DefiLlamaYieldsBase + "/pools?chain=Plasma"
		resp := p.tryFetch(ctx, url)
		check := models.HealthCheck{
			Source: "defillama-yields",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
		}
		if !check.OK {
			check.Note = "Unavailable or rate-limited"
		}
		drain(resp)
		checks = append(checks, check)
	}

	// DeFiLlama: Plasma chain TVL
	{
		url := p.sources.DefiLlamaAPIBase + "/charts/Plasma"
		resp := p.tryFetch(ctx, url)
		checks = append(checks, models.HealthCheck{
			Source: "defillama-chain-tvl",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
		})
		drain(resp)
	}

	// DeFiLlama: Plasma Saving Vaults
	{
		url := p.sources.DefiLlamaAPIBase + "/protocol/plasma-saving-vaults"
		resp := p.tryFetch(ctx, url)
		checks = append(checks, models.HealthCheck{
			Source: "defillama-saving-vaults",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
		})
		drain(resp)
	}

	// Stablewatch dashboard: тільки UI, даних без scrape немає
	{
		url := p.sources.StablewatchBase + "/"
		resp := p.tryFetch(ctx, url)
		checks = append(checks, models.HealthCheck{
			Source: "stablewatch-plasma-ui",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
			Note:   "Public UI; scrape or partner for data export",
		})
		drain(resp)
	}

	// Merkl: chain не підтримується, фіксуємо тіло відповіді
	{
		url := p.sources.MerklBase + "/v4/opportunities/?items=1&onlyLive=true&chainName=plasma"
		resp := p.tryFetch(ctx, url)
		note := "Chain not supported or requires params"
		if resp != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxNoteLen))
			resp.Body.Close()
			if len(body) > 0 {
				note = string(body)
			}
		}
		checks = append(checks, models.HealthCheck{
			Source: "merkl-opportunities",
			URL:    url,
			Status: statusOf(resp),
			OK:     false,
			Note:   note,
		})
	}

	// Ethena: API за авторизацією
	{
		url := "https://api.ethena.fi/"
		resp := p.tryFetch(ctx, url)
		check := models.HealthCheck{
			Source: "ethena-api",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
		}
		if !check.OK {
			check.Note = "Likely requires auth / gated"
		}
		drain(resp)
		checks = append(checks, check)
	}

	// Pendle: публічного route немає (404)
	{
		url := "https://api.pendle.finance/core/v2/markets"
		resp := p.tryFetch(ctx, url)
		check := models.HealthCheck{
			Source: "pendle-api",
			URL:    url,
			Status: statusOf(resp),
			OK:     isOK(resp),
		}
		if !check.OK {
			check.Note = "No public route (404)"
		}
		drain(resp)
		checks = append(checks, check)
	}

	if p.repo != nil {
		if err := p.repo.InsertChecks(checks); err != nil {
			p.logger.Warn("Не вдалося записати health checks: %v", err)
		}
	}

	return checks
}

func drain(resp *http.Response) {
	if resp == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
