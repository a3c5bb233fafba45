package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/haeli05/yields.to/internal/health"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/stablewatch"
)

const (
	minStablewatchTTL = 60
	maxStablewatchTTL = 3600
)

// SourcesHandler обробляє службові endpoints джерел
type SourcesHandler struct {
	probe   *health.Probe
	scraper *stablewatch.Scraper
	logger  *logger.Logger
}

// NewSourcesHandler створює новий SourcesHandler
func NewSourcesHandler(probe *health.Probe, scraper *stablewatch.Scraper, log *logger.Logger) *SourcesHandler {
	return &SourcesHandler{
		probe:   probe,
		scraper: scraper,
		logger:  log.WithPrefix("API"),
	}
}

// Health проганяє перевірки всіх upstream
func (h *SourcesHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.probe.RunChecks(r.Context())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"checks": checks,
	})
}

// Stablewatch віддає scrape результат. Параметри: refresh=1
// оминає кеш, ttl (секунди) затискається в [60, 3600].
func (h *SourcesHandler) Stablewatch(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "1"

	opts := sources.LoadOptions{Refresh: refresh}
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		if ttl, err := strconv.Atoi(raw); err == nil {
			if ttl < minStablewatchTTL {
				ttl = minStablewatchTTL
			}
			if ttl > maxStablewatchTTL {
				ttl = maxStablewatchTTL
			}
			opts.TTL = time.Duration(ttl) * time.Second
		}
	}

	data, cached, err := h.scraper.Raw(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":   data,
		"cached": cached,
	})
}
