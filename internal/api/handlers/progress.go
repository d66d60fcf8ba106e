package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/carbon"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/gamification"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// ProgressStore reads and removes gamification state.
type ProgressStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// HistoryAdmin is the history surface needed for carbon, export, and data
// removal.
type HistoryAdmin interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.HistoryItem, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// SettingsReader reads and removes stored settings.
type SettingsReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// ComparisonAdmin is the comparison surface needed for export and data
// removal.
type ComparisonAdmin interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Comparison, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// ProgressHandler serves gamification state, carbon aggregates, export, and
// data removal.
type ProgressHandler struct {
	progress    ProgressStore
	history     HistoryAdmin
	settings    SettingsReader
	comparisons ComparisonAdmin
	logger      *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(
	progress ProgressStore,
	history HistoryAdmin,
	settings SettingsReader,
	comparisons ComparisonAdmin,
	logger *zap.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		progress:    progress,
		history:     history,
		settings:    settings,
		comparisons: comparisons,
		logger:      logger,
	}
}

// ProgressResponse is the API representation of gamification state.
type ProgressResponse struct {
	Progress     *domain.UserProgress           `json:"progress"`
	Level        gamification.Level             `json:"level"`
	NextLevel    *gamification.Level            `json:"next_level,omitempty"`
	XPProgress   int                            `json:"xp_progress"`
	Achievements []gamification.AchievementState `json:"achievements"`
}

// Get handles GET /api/v1/progress
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	progress := h.loadProgress(r.Context(), userID, w)
	if progress == nil {
		return
	}

	httputil.JSON(w, http.StatusOK, ProgressResponse{
		Progress:     progress,
		Level:        gamification.LevelForXP(progress.XP),
		NextLevel:    gamification.NextLevel(progress.Level),
		XPProgress:   gamification.XPProgress(progress.XP, progress.Level),
		Achievements: gamification.AchievementProgress(progress),
	})
}

// Challenge handles GET /api/v1/progress/challenge
func (h *ProgressHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, gamification.ChallengeForDay(time.Now()))
}

// Carbon handles GET /api/v1/carbon
func (h *ProgressHandler) Carbon(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	items, err := h.history.List(r.Context(), userID, domain.HistoryCap, 0)
	if err != nil {
		h.logger.Error("Failed to load history for carbon summary", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	history := make([]domain.HistoryItem, len(items))
	for i, item := range items {
		history[i] = *item
	}

	httputil.JSON(w, http.StatusOK, carbon.Summarize(history, time.Now().UTC()))
}

// ExportResponse is the full JSON export of a user's data.
type ExportResponse struct {
	Progress    *domain.UserProgress  `json:"progress"`
	Settings    *domain.Settings      `json:"settings"`
	History     []*domain.HistoryItem `json:"history"`
	Comparisons []*domain.Comparison  `json:"comparisons"`
	ExportedAt  time.Time             `json:"exported_at"`
}

// Export handles GET /api/v1/export
func (h *ProgressHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}
	ctx := r.Context()

	progress := h.loadProgress(ctx, userID, w)
	if progress == nil {
		return
	}

	settings, err := h.settings.Get(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			httputil.ErrorFromDomain(w, err)
			return
		}
		settings = domain.DefaultSettings(userID)
	}

	history, err := h.history.List(ctx, userID, domain.HistoryCap, 0)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if history == nil {
		history = []*domain.HistoryItem{}
	}

	comparisons, err := h.comparisons.List(ctx, userID)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if comparisons == nil {
		comparisons = []*domain.Comparison{}
	}

	httputil.JSON(w, http.StatusOK, ExportResponse{
		Progress:    progress,
		Settings:    settings,
		History:     history,
		Comparisons: comparisons,
		ExportedAt:  time.Now().UTC(),
	})
}

// DeleteData handles DELETE /api/v1/data
func (h *ProgressHandler) DeleteData(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}
	ctx := r.Context()

	if err := h.history.DeleteAll(ctx, userID); err != nil {
		h.logger.Error("Failed to delete history", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.comparisons.DeleteAll(ctx, userID); err != nil {
		h.logger.Error("Failed to delete comparisons", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.progress.Delete(ctx, userID); err != nil {
		h.logger.Error("Failed to delete progress", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.settings.Delete(ctx, userID); err != nil {
		h.logger.Error("Failed to delete settings", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("User data deleted", zap.String("user_id", userID.String()))

	httputil.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// loadProgress fetches stored progress, substituting the zero state for new
// users. Writes an error response and returns nil on storage failure.
func (h *ProgressHandler) loadProgress(ctx context.Context, userID uuid.UUID, w http.ResponseWriter) *domain.UserProgress {
	progress, err := h.progress.Get(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("Failed to load progress", zap.Error(err))
			httputil.ErrorFromDomain(w, err)
			return nil
		}
		progress = domain.NewUserProgress(userID)
	}
	return progress
}
