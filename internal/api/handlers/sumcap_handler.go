package handlers

import (
	"net/http"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/repository"
	"github.com/haeli05/yields.to/internal/sources/sumcap"
)

// SumcapHandler знімає SumCap endpoints: повний синк у сховище
// та легкі chain-метрики для live сторінки
type SumcapHandler struct {
	client *sumcap.Client
	repo   repository.SumcapRepository
	secret string
	logger *logger.Logger
}

// NewSumcapHandler створює новий SumcapHandler
func NewSumcapHandler(client *sumcap.Client, repo repository.SumcapRepository, secret string, log *logger.Logger) *SumcapHandler {
	return &SumcapHandler{
		client: client,
		repo:   repo,
		secret: secret,
		logger: log.WithPrefix("API"),
	}
}

type failedPath struct {
	Path   string `json:"path"`
	Status int    `json:"status"`
}

// Sync послідовно знімає всі відомі endpoints і зберігає
// сирі payloads за поточну годину. Захищено shared secret.
func (h *SumcapHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if !checkCronSecret(r, h.secret) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.repo == nil {
		respondError(w, http.StatusInternalServerError, "Storage not configured")
		return
	}

	now := time.Now().UTC()
	ts := now.Truncate(time.Hour)

	results := h.client.FetchAll(r.Context())

	rows := make([]models.EndpointSnapshot, 0, len(results))
	var failed []failedPath
	for _, result := range results {
		payload := result.JSON
		if payload == nil {
			payload = []byte("{}")
		}
		rows = append(rows, models.EndpointSnapshot{
			TS:        ts,
			Endpoint:  result.Path,
			Status:    result.Status,
			OK:        result.OK,
			Payload:   models.JSONValue(payload),
			UpdatedAt: now,
		})
		if !result.OK {
			failed = append(failed, failedPath{Path: result.Path, Status: result.Status})
		}
	}

	if err := h.repo.UpsertSnapshots(rows); err != nil {
		h.logger.Error("Upsert sumcap знімків впав: %v", err)
		respondError(w, http.StatusInternalServerError, "Upsert failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"ts":     ts.Format(time.RFC3339),
		"count":  len(results),
		"failed": failed,
	})
}

// ChainMetrics віддає users/transactions/contracts/blocks одним
// документом. 502 тільки коли впали всі чотири endpoints.
func (h *SumcapHandler) ChainMetrics(w http.ResponseWriter, r *http.Request) {
	data := h.client.Metrics(r.Context())

	w.Header().Set("Cache-Control", "s-maxage=1200, stale-while-revalidate=1200")

	if len(data.Errors) >= 4 {
		respondJSON(w, http.StatusBadGateway, data)
		return
	}

	respondJSON(w, http.StatusOK, data)
}
