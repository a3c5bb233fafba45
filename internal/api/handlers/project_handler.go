package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/repository"
)

// ProjectHandler приймає заявки на додавання проєктів
type ProjectHandler struct {
	repo   repository.ProjectRepository
	logger *logger.Logger
}

// NewProjectHandler створює новий ProjectHandler
func NewProjectHandler(repo repository.ProjectRepository, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		repo:   repo,
		logger: log.WithPrefix("API"),
	}
}

// Submit зберігає заявку. Відсутнє сховище не є помилкою для
// користувача: заявка принаймні потрапляє в лог.
func (h *ProjectHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var submission models.ProjectSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if submission.ProjectName == "" || submission.ProtocolName == "" ||
		submission.Website == "" || submission.ContactEmail == "" ||
		submission.Description == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if h.repo == nil {
		h.logger.Warn("Сховище не налаштоване, заявка лише в лозі: %s (%s)",
			submission.ProjectName, submission.ContactEmail)
	} else if err := h.repo.Create(&submission); err != nil {
		h.logger.Error("Не вдалося зберегти заявку %s: %v", submission.ProjectName, err)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Project submitted successfully",
	})
}
