package middleware

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/fmeta/backend/internal/logging"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Success: false, Message: message}); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode middleware response", "error", err)
	}
}
