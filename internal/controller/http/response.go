package http

import (
	"encoding/json"
	"net/http"

	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, MessageResponse{Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Log.WithError(err).Error("Failed to encode response")
		}
	}
}
