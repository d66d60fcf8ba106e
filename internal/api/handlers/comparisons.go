package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// ComparisonStore writes the pinned comparison set.
type ComparisonStore interface {
	Upsert(ctx context.Context, comparison *domain.Comparison) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Comparison, error)
	Delete(ctx context.Context, userID uuid.UUID, companyDomain string) error
}

// HistoryGetter fetches one history item for pinning.
type HistoryGetter interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.HistoryItem, error)
}

// ComparisonCounter bumps the compared-companies counter.
type ComparisonCounter interface {
	IncrementCompaniesCompared(ctx context.Context, userID uuid.UUID) error
}

// ComparisonHandler handles comparison set requests
type ComparisonHandler struct {
	comparisons ComparisonStore
	history     HistoryGetter
	progress    ComparisonCounter
	logger      *zap.Logger
}

// NewComparisonHandler creates a new comparison handler
func NewComparisonHandler(
	comparisons ComparisonStore,
	history HistoryGetter,
	progress ComparisonCounter,
	logger *zap.Logger,
) *ComparisonHandler {
	return &ComparisonHandler{
		comparisons: comparisons,
		history:     history,
		progress:    progress,
		logger:      logger,
	}
}

// List handles GET /api/v1/comparisons
func (h *ComparisonHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	comparisons, err := h.comparisons.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list comparisons", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if comparisons == nil {
		comparisons = []*domain.Comparison{}
	}

	httputil.JSON(w, http.StatusOK, comparisons)
}

// AddComparisonRequest pins a previously analyzed company by history item.
type AddComparisonRequest struct {
	HistoryID string `json:"history_id"`
}

// Add handles POST /api/v1/comparisons
func (h *ComparisonHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	var req AddComparisonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	historyID, err := uuid.Parse(req.HistoryID)
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ValidationError("history_id", "history_id must be a UUID"))
		return
	}

	item, err := h.history.GetByID(r.Context(), userID, historyID)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	comparison := &domain.Comparison{
		UserID:      userID,
		Domain:      item.Domain,
		CompanyName: item.CompanyName,
		Score:       item.Score,
		Breakdown:   item.Breakdown,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.comparisons.Upsert(r.Context(), comparison); err != nil {
		h.logger.Error("Failed to save comparison", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := h.progress.IncrementCompaniesCompared(r.Context(), userID); err != nil {
		// Counter drift is tolerable; the comparison itself is saved
		h.logger.Warn("Failed to bump comparison counter", zap.Error(err))
	}

	h.logger.Info("Comparison added",
		zap.String("user_id", userID.String()),
		zap.String("domain", comparison.Domain),
	)

	httputil.JSON(w, http.StatusCreated, comparison)
}

// Delete handles DELETE /api/v1/comparisons/{domain}
func (h *ComparisonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	companyDomain, err := url.PathUnescape(chi.URLParam(r, "domain"))
	if err != nil || companyDomain == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("domain", "domain is required"))
		return
	}

	if err := h.comparisons.Delete(r.Context(), userID, companyDomain); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
