package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"luckydraw/backend/internal/auth"
	"luckydraw/backend/internal/lottery"
	"luckydraw/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const maxBannerBytes = 5 << 20

type adminLoginRequest struct {
	Password string `json:"password"`
}

type updateSettingsRequest struct {
	Round        int        `json:"round" validate:"required,min=1"`
	TicketPrice  int64      `json:"ticketPrice" validate:"required,min=1"`
	TotalTickets int        `json:"totalTickets" validate:"required,min=1"`
	DrawDate     *time.Time `json:"drawDate"`
	BannerURL    string     `json:"bannerUrl"`
}

type upsertWinnerRequest struct {
	TicketCode  string `json:"ticketCode" validate:"required"`
	PrizeAmount int64  `json:"prizeAmount" validate:"required,min=1"`
}

type autoGenerateWinnersRequest struct {
	Tiers []struct {
		Count  int   `json:"count"`
		Amount int64 `json:"amount"`
	} `json:"tiers"`
}

// AdminLogin authenticates the admin and hands out a bearer token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("admin_login", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password required")
		return
	}
	if h.cfg.AdminPassword == "" && h.cfg.AdminPassHash == "" {
		logger.Warn("admin_login", "status", "disabled")
		writeError(w, http.StatusUnauthorized, "admin login disabled")
		return
	}
	if h.cfg.AdminPassHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPassHash), []byte(req.Password)); err != nil {
			logger.Warn("admin_login", "status", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
	} else if req.Password != h.cfg.AdminPassword {
		logger.Warn("admin_login", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignAdminToken(h.cfg.JWTSecret)
	if err != nil {
		logger.Error("admin_login", "status", "token_error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("admin_login", "status", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetSettings returns the active round configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	settings, err := h.repo.GetActiveSettings(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "get_settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings replaces the active round configuration. Posting a new
// round deactivates the previous one.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("update_settings", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("update_settings", "status", "validation_failed", "error", err)
		writeError(w, http.StatusBadRequest, "round, ticketPrice and totalTickets must be positive")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	settings, err := h.repo.UpsertSettings(ctx, models.LotterySettings{
		Round:        req.Round,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
		DrawDate:     req.DrawDate,
		BannerURL:    strings.TrimSpace(req.BannerURL),
		IsActive:     true,
	})
	if err != nil {
		h.handleLotteryError(logger, w, "update_settings", err)
		return
	}
	logger.Info("update_settings", "status", "ok", "round", settings.Round,
		"ticket_price", settings.TicketPrice, "total_tickets", settings.TotalTickets)
	writeJSON(w, http.StatusOK, settings)
}

// Stats returns aggregate counters for the admin dashboard.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	stats, err := h.repo.GetStats(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AutoGenerateWinners draws winners at random from the confirmed tickets of
// the active round. Tickets that already won are excluded, so the draw can
// be re-run to fill remaining tiers.
func (h *Handler) AutoGenerateWinners(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	var req autoGenerateWinnersRequest
	if r.Body != nil {
		// Tier overrides are optional; an empty body means default tiers.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	tiers := make([]lottery.PrizeTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		if t.Count <= 0 || t.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "tier count and amount must be positive")
			return
		}
		tiers = append(tiers, lottery.PrizeTier{Count: t.Count, Amount: t.Amount})
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	settings, err := h.repo.GetActiveSettings(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "auto_generate_winners", err)
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	winners, err := h.repo.AutoGenerateWinners(ctx, settings.Round, tiers, rng)
	if err != nil {
		h.handleLotteryError(logger, w, "auto_generate_winners", err)
		return
	}
	logger.Info("auto_generate_winners", "status", "ok", "round", settings.Round, "winners", len(winners))
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": winners})
}

// UpsertWinner records or updates a winner by ticket code.
func (h *Handler) UpsertWinner(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req upsertWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("upsert_winner", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.TicketCode = strings.ToUpper(strings.TrimSpace(req.TicketCode))
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("upsert_winner", "status", "validation_failed", "error", err)
		writeError(w, http.StatusBadRequest, "ticketCode and a positive prizeAmount are required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	winner, err := h.repo.UpsertWinner(ctx, req.TicketCode, req.PrizeAmount)
	if err != nil {
		h.handleLotteryError(logger, w, "upsert_winner", err)
		return
	}
	logger.Info("upsert_winner", "status", "ok", "ticket_code", winner.TicketCode, "prize", winner.PrizeAmount)
	writeJSON(w, http.StatusOK, winner)
}

// ListUsers returns every user with their tickets and wins.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	users, err := h.repo.ListUserDetails(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "list_users", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": users, "total": len(users)})
}

// UploadBanner stores a new banner image and saves its URL on the active
// settings row.
func (h *Handler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.s3 == nil {
		writeError(w, http.StatusServiceUnavailable, "banner storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
		logger.Warn("upload_banner", "status", "invalid_form", "error", err)
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		writeError(w, http.StatusBadRequest, "banner file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	url, err := h.s3.UploadBanner(ctx, header.Filename, contentType, file, header.Size)
	if err != nil {
		logger.Error("upload_banner", "status", "s3_error", "error", err)
		writeError(w, http.StatusBadGateway, "banner upload failed")
		return
	}

	settings, err := h.repo.SetBannerURL(ctx, url)
	if err != nil {
		h.handleLotteryError(logger, w, "upload_banner", err)
		return
	}
	logger.Info("upload_banner", "status", "ok", "banner_url", url)
	writeJSON(w, http.StatusOK, settings)
}
