package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/services/analysis"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// AnalysisService runs the scrape/research/analyze pipeline.
type AnalysisService interface {
	Analyze(ctx context.Context, userID uuid.UUID, url string) (*analysis.Outcome, error)
	Scrape(ctx context.Context, url string) (*domain.ScrapedPage, error)
}

// HistoryStore reads the persisted analysis log.
type HistoryStore interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.HistoryItem, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.HistoryItem, error)
	Stats(ctx context.Context, userID uuid.UUID) (*domain.HistoryStats, error)
}

// AnalysisHandler handles analysis and scrape requests
type AnalysisHandler struct {
	service AnalysisService
	history HistoryStore
	logger  *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisService, history HistoryStore, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		history: history,
		logger:  logger,
	}
}

// AnalyzeRequest is the request body for starting an analysis
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// Create handles POST /api/v1/analyses
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	var req AnalyzeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := validateTargetURL(req.URL); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	outcome, err := h.service.Analyze(r.Context(), userID, req.URL)
	if err != nil {
		h.logger.Warn("analysis failed",
			zap.String("user_id", userID.String()),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, outcome)
}

// HistoryResponse bundles the history page with aggregate stats.
type HistoryResponse struct {
	Items []*domain.HistoryItem `json:"items"`
	Stats *domain.HistoryStats  `json:"stats"`
}

// List handles GET /api/v1/analyses
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	pagination := httputil.GetPagination(r, 20, domain.HistoryCap)

	items, err := h.history.List(r.Context(), userID, pagination.PerPage, pagination.Offset)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	stats, err := h.history.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load history stats", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	if items == nil {
		items = []*domain.HistoryItem{}
	}

	httputil.JSONWithMeta(w, http.StatusOK, HistoryResponse{Items: items, Stats: stats}, &httputil.Meta{
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      stats.Total,
		TotalPages: httputil.CalculateTotalPages(stats.Total, pagination.PerPage),
	})
}

// Get handles GET /api/v1/analyses/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid analysis ID format", nil)
		return
	}

	item, err := h.history.GetByID(r.Context(), userID, id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Scrape handles POST /api/v1/scrape
func (h *AnalysisHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := validateTargetURL(req.URL); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	page, err := h.service.Scrape(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn("scrape failed", zap.String("url", req.URL), zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, page)
}

// validateTargetURL accepts absolute http(s) URLs only.
func validateTargetURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return domain.ValidationError("url", "url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return domain.ValidationError("url", "invalid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.ValidationError("url", "url must use http or https")
	}
	if parsed.Host == "" {
		return domain.ValidationError("url", "url must be absolute")
	}

	return nil
}
