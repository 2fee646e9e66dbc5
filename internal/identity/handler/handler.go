package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"padron/internal/identity/models"
	"padron/pkg/domain"
	"padron/pkg/platform/httputil"
	"padron/pkg/requestcontext"
)

// Service defines the interface for identity consultations.
type Service interface {
	Consult(ctx context.Context, rawID, credentialOverride string) (*models.PersonRecord, error)
}

// Handler wires identity endpoints to the lookup service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/identity/{id}", h.HandleConsult)
	r.Post("/identity/{id}", h.HandleConsultWithToken)
}

// HandleConsult handles GET /identity/{id} using the configured credential.
func (h *Handler) HandleConsult(w http.ResponseWriter, r *http.Request) {
	h.consult(w, r, pathID(r), "")
}

// HandleConsultWithToken handles POST /identity/{id}. A non-empty token in
// the body overrides the configured registry credential.
func (h *Handler) HandleConsultWithToken(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	// Format errors win over body errors and never touch the registry.
	if !domain.Validate(id) {
		h.consult(w, r, id, "")
		return
	}
	req, err := httputil.DecodeJSON[ConsultRequest](w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid consult request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusBadRequest, MsgMalformedBody)
		return
	}
	h.consult(w, r, id, req.Token)
}

// pathID returns the decoded {id} segment. chi hands back the escaped form
// when the request carries a RawPath; an undecodable segment is returned
// as-is and fails validation.
func pathID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func (h *Handler) consult(w http.ResponseWriter, r *http.Request, id, token string) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	record, err := h.service.Consult(ctx, id, token)
	if err != nil {
		status, message := Translate(err)
		attrs := []any{
			"request_id", requestID,
			"dni", domain.MaskDNI(id),
			"status", status,
			"error", err,
		}
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "identity consultation failed", attrs...)
		} else {
			h.logger.WarnContext(ctx, "identity consultation rejected", attrs...)
		}
		httputil.WriteFailure(w, status, message)
		return
	}

	h.logger.InfoContext(ctx, "identity consulted",
		"request_id", requestID,
		"dni", domain.MaskDNI(id),
		"override_credential", token != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteSuccess(w, http.StatusOK, MsgSuccess, FromRecord(record, requestcontext.Now(ctx)))
}
