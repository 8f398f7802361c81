package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const errCodeDB = "API-ERR-DB"

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code string) {
	writeJSON(w, logger, status, ErrorResponse{Message: code})
}
