package handlers

import (
	"net/http"

	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/chateau"
	"github.com/haeli05/yields.to/internal/sources/defillama"
	"github.com/haeli05/yields.to/internal/sources/pendle"
)

// YieldsHandler обробляє read-шляхи yields (cache-first,
// незалежні від планового синку)
type YieldsHandler struct {
	llama     *defillama.Adapter
	pendle    *pendle.Adapter
	chateau   *chateau.Adapter
	snapshots repository.SnapshotRepository
	logger    *logger.Logger
}

// NewYieldsHandler створює новий YieldsHandler
func NewYieldsHandler(
	llama *defillama.Adapter,
	pendleAdapter *pendle.Adapter,
	chateauAdapter *chateau.Adapter,
	snapshots repository.SnapshotRepository,
	log *logger.Logger,
) *YieldsHandler {
	return &YieldsHandler{
		llama:     llama,
		pendle:    pendleAdapter,
		chateau:   chateauAdapter,
		snapshots: snapshots,
		logger:    log.WithPrefix("API"),
	}
}

func refreshRequested(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "1"
}

// Plasma віддає top-50 Plasma pools з DeFiLlama
func (h *YieldsHandler) Plasma(w http.ResponseWriter, r *http.Request) {
	opts := sources.LoadOptions{Refresh: refreshRequested(r)}

	data, cached, err := h.llama.Load(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Upstream yields unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":   data,
		"cached": cached,
	})
}

// Pendle віддає активні Pendle pools плюс помісячну історію,
// пораховану з накопичених знімків
func (h *YieldsHandler) Pendle(w http.ResponseWriter, r *http.Request) {
	opts := sources.LoadOptions{Refresh: refreshRequested(r)}

	pools, cached, err := h.pendle.Load(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Pendle unavailable")
		return
	}

	monthly := []models.MonthlyPoolStat{}
	if h.snapshots != nil {
		stats, statsErr := h.snapshots.MonthlyBySource(models.SourcePendle)
		if statsErr != nil {
			h.logger.Warn("Помісячна історія Pendle недоступна: %v", statsErr)
		} else {
			monthly = stats
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pools":   pools,
		"monthly": monthly,
		"cached":  cached,
	})
}

// Chateau проксує документ метрик Chateau Capital
func (h *YieldsHandler) Chateau(w http.ResponseWriter, r *http.Request) {
	opts := sources.LoadOptions{Refresh: refreshRequested(r)}

	metrics, _, err := h.chateau.Metrics(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Chateau Capital API unavailable")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
