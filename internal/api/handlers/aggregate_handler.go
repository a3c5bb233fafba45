package handlers

import (
	"errors"
	"net/http"

	"github.com/haeli05/yields.to/internal/aggregator"
	"github.com/haeli05/yields.to/internal/logger"
)

// AggregateHandler запускає aggregation job по HTTP
type AggregateHandler struct {
	job    *aggregator.Job
	secret string
	logger *logger.Logger
}

// NewAggregateHandler створює новий AggregateHandler
func NewAggregateHandler(job *aggregator.Job, secret string, log *logger.Logger) *AggregateHandler {
	return &AggregateHandler{
		job:    job,
		secret: secret,
		logger: log.WithPrefix("API"),
	}
}

// Sync запускає повний синк. Захищено shared secret:
// заголовок x-cron-secret або query параметр secret.
func (h *AggregateHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if !checkCronSecret(r, h.secret) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.job.Run(r.Context())
	if err != nil {
		if errors.Is(err, aggregator.ErrStorageNotConfigured) {
			respondError(w, http.StatusInternalServerError, "Storage not configured")
			return
		}
		h.logger.Error("Синк впав: %v", err)
		respondError(w, http.StatusInternalServerError, "Sync failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
