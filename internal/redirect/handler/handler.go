package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkpulse/internal/redirect/service"
	dErrors "linkpulse/pkg/domain-errors"
	"linkpulse/pkg/platform/httputil"
	"linkpulse/pkg/requestcontext"
)

// Service defines the interface for alias resolution.
type Service interface {
	Resolve(ctx context.Context, code string) (*service.Resolution, error)
}

// Handler serves the public redirect endpoint.
type Handler struct {
	logger   *slog.Logger
	resolver Service
}

func New(resolver Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, resolver: resolver}
}

// Register mounts GET /short/{code}. The router is expected to carry the client
// metadata and request time middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/short/{code}", h.handleRedirect)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	res, err := h.resolver.Resolve(ctx, code)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeExpired) {
			h.logger.ErrorContext(ctx, "resolve failed",
				"request_id", requestcontext.RequestID(ctx),
				"code", code,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.Destination, http.StatusFound)
}
