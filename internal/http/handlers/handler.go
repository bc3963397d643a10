package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"luckydraw/backend/internal/config"
	"luckydraw/backend/internal/integrations"
	"luckydraw/backend/internal/integrations/razorpay"
	"luckydraw/backend/internal/rate"
	"luckydraw/backend/internal/repository"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	xrate "golang.org/x/time/rate"
)

type Handler struct {
	repo           *repository.Repository
	gateway        *razorpay.Client
	s3             *integrations.S3Client
	cfg            *config.Config
	logger         *slog.Logger
	validator      *validator.Validate
	orderLimiter   *rate.WindowLimiter
	webhookLimiter *xrate.Limiter
}

func New(repo *repository.Repository, gateway *razorpay.Client, s3 *integrations.S3Client, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      repo,
		gateway:   gateway,
		s3:        s3,
		cfg:       cfg,
		logger:    logger,
		validator: validator.New(),
		// Per-phone order throttle plus a global ceiling on webhook
		// deliveries; the gateway retries anything we shed.
		orderLimiter:   rate.NewWindowLimiter(10, time.Minute),
		webhookLimiter: xrate.NewLimiter(xrate.Limit(20), 40),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}
