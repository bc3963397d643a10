package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"luckydraw/backend/internal/repository"

	"github.com/go-chi/chi/v5"
)

type remainingTicketsResponse struct {
	Round     int `json:"round"`
	Total     int `json:"total"`
	Sold      int `json:"sold"`
	Remaining int `json:"remaining"`
}

type ticketResultResponse struct {
	TicketCode  string `json:"ticketCode"`
	Round       int    `json:"round"`
	Won         bool   `json:"won"`
	PrizeAmount int64  `json:"prizeAmount,omitempty"`
}

// RemainingTickets reports how many tickets of the active round are still
// available for sale.
func (h *Handler) RemainingTickets(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	settings, err := h.repo.GetActiveSettings(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "remaining_tickets", err)
		return
	}
	sold, err := h.repo.CountTicketsSold(ctx, settings.Round)
	if err != nil {
		h.handleLotteryError(logger, w, "remaining_tickets", err)
		return
	}
	remaining := settings.TotalTickets - sold
	if remaining < 0 {
		remaining = 0
	}
	writeJSON(w, http.StatusOK, remainingTicketsResponse{
		Round:     settings.Round,
		Total:     settings.TotalTickets,
		Sold:      sold,
		Remaining: remaining,
	})
}

// TicketResult answers the win/lose question for one ticket code.
func (h *Handler) TicketResult(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticketCode")))
	if code == "" {
		writeError(w, http.StatusBadRequest, "ticket code is required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	ticket, err := h.repo.GetTicketByCode(ctx, code)
	if err != nil {
		h.handleLotteryError(logger, w, "ticket_result", err)
		return
	}

	winner, err := h.repo.GetWinnerByTicketCode(ctx, ticket.Code)
	if err != nil {
		if errors.Is(err, repository.ErrWinnerNotFound) {
			writeJSON(w, http.StatusOK, ticketResultResponse{
				TicketCode: ticket.Code,
				Round:      ticket.Round,
				Won:        false,
			})
			return
		}
		h.handleLotteryError(logger, w, "ticket_result", err)
		return
	}

	writeJSON(w, http.StatusOK, ticketResultResponse{
		TicketCode:  ticket.Code,
		Round:       winner.Round,
		Won:         true,
		PrizeAmount: winner.PrizeAmount,
	})
}

// RecentWinners lists the most recent winners with masked phone numbers.
func (h *Handler) RecentWinners(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	limit := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	winners, err := h.repo.ListRecentWinners(ctx, limit)
	if err != nil {
		h.handleLotteryError(logger, w, "recent_winners", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": winners})
}
