// Package handler is the HTTP front adapter for registration verification.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"regverify/internal/platform/middleware"
	"regverify/internal/registration/models"
	"regverify/internal/registration/service"
	dErrors "regverify/pkg/domain-errors"
	"regverify/pkg/platform/httputil"
	"regverify/pkg/platform/middleware/metadata"
	"regverify/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// Service runs a verification. It never fails: every outcome is a result.
type Service interface {
	Verify(ctx context.Context, req models.VerificationRequest) *models.VerificationResult
}

// HealthChecker reports whether the registration store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler handles registration verification endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	health  HealthChecker
}

// New creates a new registration Handler.
func New(svc Service, health HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger:  logger,
		service: svc,
		health:  health,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(middleware.Logger(h.logger))
	router.Use(requesttime.Middleware)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.ContentTypeJSON)
	router.Post("/v1/registrations/verify", h.handleVerify)
	router.Get("/healthz", h.handleHealth)

	r.Mount("/", router)
}

// handleVerify always answers 200 with a VerificationResult, including for
// input the pipeline rejects. Only an undecodable body is a 400.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	req, err := service.ParseRequest(body.toRaw())
	if err != nil {
		h.logger.InfoContext(ctx, "verification request rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusOK, service.RejectInput(err.Error()))
		return
	}

	result := h.service.Verify(ctx, req)
	h.logger.InfoContext(ctx, "registration verification completed",
		"request_id", requestID,
		"jurisdiction", req.Jurisdiction.String(),
		"success", result.Success,
		"verified", result.Verified,
		"method", result.VerificationMethod.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "registration store unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
