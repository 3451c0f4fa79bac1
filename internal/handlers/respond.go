package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, messageResponse{Success: status < http.StatusBadRequest, Message: message})
}

// respondError maps a service error onto a status code. Internal details are
// logged and replaced by a generic message.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("unexpected service error", "error", err)
	}
	respondMessage(ctx, w, status, apperr.PublicMessage(err))
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeRequest reads a JSON body into dst and validates its struct tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body is too large")
		}
		return apperr.Validation("Invalid request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return apperr.Validation("Request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return validateRequest(dst)
}

// queryInt parses a positive integer query parameter, returning 0 when it is
// missing or malformed so callers fall back to their defaults.
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
