package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"luckydraw/backend/internal/repository"

	"github.com/jackc/pgx/v5"
)

// writeJSON writes j s o n.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes error.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) handleLotteryError(logger interface {
	Error(string, ...any)
	Warn(string, ...any)
}, w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound), errors.Is(err, repository.ErrTicketNotFound), errors.Is(err, repository.ErrWinnerNotFound), errors.Is(err, pgx.ErrNoRows):
		logger.Warn(action, "status", "not_found", "error", err)
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrInventoryExhausted):
		logger.Warn(action, "status", "sold_out", "error", err)
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrIssuanceExhausted):
		// Server-side failure: the generator ran out of attempts, the
		// client's request was fine and may be retried as-is.
		logger.Error(action, "status", "issuance_exhausted", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error(action, "status", "internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
