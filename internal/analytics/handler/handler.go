package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	aliasmodels "linkpulse/internal/alias/models"
	"linkpulse/internal/analytics/models"
	dErrors "linkpulse/pkg/domain-errors"
	"linkpulse/pkg/platform/httputil"
	"linkpulse/pkg/requestcontext"
)

// Service defines the interface for analytics reads.
type Service interface {
	Snapshot(ctx context.Context, code string, window models.Window) (*models.Snapshot, error)
	FindByTag(ctx context.Context, tag string) ([]*aliasmodels.Alias, error)
}

// Handler serves the analytics JSON endpoints.
type Handler struct {
	logger    *slog.Logger
	analytics Service
}

func New(analytics Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, analytics: analytics}
}

// Register mounts the analytics routes. The static tag route wins over {code}.
func (h *Handler) Register(r chi.Router) {
	r.Get("/analytics/tag/{tag}", h.handleFindByTag)
	r.Get("/analytics/{code}", h.handleSnapshot)
}

type snapshotResponse struct {
	OriginalURL    string            `json:"originalUrl"`
	TotalVisits    int64             `json:"totalVisits"`
	UniqueVisitors int64             `json:"uniqueVisitors"`
	Devices        map[string]int64  `json:"devices"`
	Referrers      map[string]int64  `json:"referrers"`
	Tags           []string          `json:"tags"`
	TimeSeries     []dailyCountEntry `json:"timeSeries"`
}

type dailyCountEntry struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type aliasEntry struct {
	ShortCode      string     `json:"shortCode"`
	OriginalURL    string     `json:"originalUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Tags           []string   `json:"tags"`
	TotalVisits    int64      `json:"totalVisits"`
	UniqueVisitors int64      `json:"uniqueVisitors"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	window := models.Window{}
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "days must be a non-negative integer"))
			return
		}
		window.Days = days
	}

	snap, err := h.analytics.Snapshot(ctx, code, window)
	if err != nil {
		h.logFailure(ctx, "snapshot", code, err)
		httputil.WriteError(w, err)
		return
	}

	resp := snapshotResponse{
		OriginalURL:    snap.OriginalURL,
		TotalVisits:    snap.TotalVisits,
		UniqueVisitors: snap.UniqueVisitors,
		Devices:        snap.Devices,
		Referrers:      snap.Referrers,
		Tags:           snap.Tags,
		TimeSeries:     make([]dailyCountEntry, 0, len(snap.TimeSeries)),
	}
	if resp.Devices == nil {
		resp.Devices = map[string]int64{}
	}
	if resp.Referrers == nil {
		resp.Referrers = map[string]int64{}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, d := range snap.TimeSeries {
		resp.TimeSeries = append(resp.TimeSeries, dailyCountEntry{Date: d.Date, Count: d.Count})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFindByTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag := chi.URLParam(r, "tag")

	aliases, err := h.analytics.FindByTag(ctx, tag)
	if err != nil {
		h.logFailure(ctx, "find by tag", tag, err)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]aliasEntry, 0, len(aliases))
	for _, a := range aliases {
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		resp = append(resp, aliasEntry{
			ShortCode:      a.Code,
			OriginalURL:    a.Destination,
			CreatedAt:      a.CreatedAt,
			ExpiresAt:      a.ExpiresAt,
			Tags:           tags,
			TotalVisits:    a.TotalVisits,
			UniqueVisitors: a.UniqueVisitors,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logFailure(ctx context.Context, op, key string, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
		return
	}
	h.logger.ErrorContext(ctx, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"key", key,
		"error", err,
	)
}
