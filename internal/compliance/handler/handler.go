package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/service"
	"listingwatch/internal/platform/metrics"
	"listingwatch/internal/platform/middleware"
	dErrors "listingwatch/pkg/domain-errors"
	"listingwatch/pkg/platform/httputil"
	"listingwatch/pkg/requestcontext"
)

// Service defines the compliance operations exposed over HTTP.
type Service interface {
	RecordCheck(ctx context.Context, obs models.Observation) (*models.CheckResult, bool, error)
	RecordBatch(ctx context.Context, observations []models.Observation) []service.BatchItem
	GetResult(ctx context.Context, checkID string) (*models.CheckResult, error)
	ListResults(ctx context.Context, filter models.ResultFilter) ([]*models.CheckResult, error)
	Stats(ctx context.Context, marketplace string, days int) (*models.Stats, error)
	TouchKeyword(ctx context.Context, text, marketplaceCode string) (*models.Keyword, error)
	ListKeywords(ctx context.Context, marketplace string) ([]*models.Keyword, error)
	CreateLearning(ctx context.Context, text, category string) (*models.Learning, error)
	ListLearnings(ctx context.Context, category string, limit int) ([]*models.Learning, error)
	DeleteLearning(ctx context.Context, learningID string) error
	AttachLearning(ctx context.Context, checkID, learningID string) error
	Reference() service.Catalog
}

// Handler serves the compliance routes.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a compliance Handler. metrics may be nil.
func New(svc Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
		metrics: metrics,
		timeout: 30 * time.Second,
	}
}

// Register mounts the compliance routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.RequestTime)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(h.timeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Metrics(h.metrics))

		r.Post("/results", h.handleRecordCheck)
		r.Post("/results/batch", h.handleRecordBatch)
		r.Get("/results", h.handleListResults)
		r.Get("/results/{checkID}", h.handleGetResult)
		r.Put("/results/{checkID}/learnings/{learningID}", h.handleAttachLearning)
		r.Get("/stats", h.handleStats)
		r.Post("/keywords", h.handleTouchKeyword)
		r.Get("/keywords", h.handleListKeywords)
		r.Get("/learnings", h.handleListLearnings)
		r.Post("/learnings", h.handleCreateLearning)
		r.Delete("/learnings/{learningID}", h.handleDeleteLearning)
		r.Get("/reference", h.handleReference)
	})
}

func (h *Handler) handleRecordCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecordCheckRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid record check request", err)
		return
	}

	result, replayed, err := h.service.RecordCheck(ctx, req.Observation())
	if err != nil {
		h.fail(ctx, w, "failed to record check", err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, RecordCheckResponse{Replayed: replayed, Result: result})
}

func (h *Handler) handleRecordBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecordBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid batch request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid batch request", err)
		return
	}

	observations := make([]models.Observation, len(req.Checks))
	for i := range req.Checks {
		observations[i] = req.Checks[i].Observation()
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(h.service.RecordBatch(ctx, observations)))
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseResultFilter(r.URL.Query())
	if err != nil {
		h.fail(ctx, w, "invalid list filter", err)
		return
	}
	results, err := h.service.ListResults(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list results", err)
		return
	}

	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultListLimit
	}
	httputil.WriteJSON(w, http.StatusOK, ListResultsResponse{
		Results: results,
		Count:   len(results),
		Limit:   limit,
		Offset:  filter.Offset,
	})
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.GetResult(ctx, chi.URLParam(r, "checkID"))
	if err != nil {
		h.fail(ctx, w, "failed to get result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	days, err := queryInt(q, "days")
	if err != nil {
		h.fail(ctx, w, "invalid stats request", err)
		return
	}
	marketplace := q.Get("marketplace")
	stats, err := h.service.Stats(ctx, marketplace, days)
	if err != nil {
		h.fail(ctx, w, "failed to compute stats", err)
		return
	}
	if days == 0 {
		days = models.DefaultStatsDays
	}
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{Stats: stats, Marketplace: marketplace, Days: days})
}

func (h *Handler) handleTouchKeyword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TouchKeywordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid keyword request", err)
		return
	}
	keyword, err := h.service.TouchKeyword(ctx, req.Keyword, req.Marketplace)
	if err != nil {
		h.fail(ctx, w, "failed to touch keyword", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, keyword)
}

func (h *Handler) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keywords, err := h.service.ListKeywords(ctx, r.URL.Query().Get("marketplace"))
	if err != nil {
		h.fail(ctx, w, "failed to list keywords", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, KeywordsResponse{Keywords: keywords})
}

func (h *Handler) handleListLearnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := queryInt(q, "limit")
	if err != nil {
		h.fail(ctx, w, "invalid learnings request", err)
		return
	}
	learnings, err := h.service.ListLearnings(ctx, q.Get("category"), limit)
	if err != nil {
		h.fail(ctx, w, "failed to list learnings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LearningsResponse{Learnings: learnings})
}

func (h *Handler) handleCreateLearning(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateLearningRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid learning request", err)
		return
	}
	learning, err := h.service.CreateLearning(ctx, req.Text, req.Category)
	if err != nil {
		h.fail(ctx, w, "failed to create learning", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, learning)
}

func (h *Handler) handleDeleteLearning(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DeleteLearning(ctx, chi.URLParam(r, "learningID")); err != nil {
		h.fail(ctx, w, "failed to delete learning", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAttachLearning(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.AttachLearning(ctx, chi.URLParam(r, "checkID"), chi.URLParam(r, "learningID"))
	if err != nil {
		h.fail(ctx, w, "failed to attach learning", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReference(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Reference())
}

// fail logs at warn for caller errors and error for everything else, then
// writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
