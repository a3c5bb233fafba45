package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// checkCronSecret перевіряє shared secret синк-запиту:
// заголовок x-cron-secret або query параметр secret.
// Порожній серверний секрет означає відмову всім.
func checkCronSecret(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}

	if r.Header.Get("X-Cron-Secret") == secret {
		return true
	}

	return r.URL.Query().Get("secret") == secret
}
