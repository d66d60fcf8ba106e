package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// SettingsStore reads and writes per-user settings.
type SettingsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error)
	Upsert(ctx context.Context, settings *domain.Settings) error
}

// KeyTester verifies an API key against the upstream provider.
type KeyTester interface {
	TestKey(ctx context.Context, apiKey string) error
}

// SettingsHandler handles settings requests
type SettingsHandler struct {
	store  SettingsStore
	keys   KeyTester
	logger *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsStore, keys KeyTester, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  store,
		keys:   keys,
		logger: logger,
	}
}

// Get handles GET /api/v1/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	settings, err := h.store.Get(r.Context(), userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("Failed to load settings", zap.Error(err))
			httputil.ErrorFromDomain(w, err)
			return
		}
		settings = domain.DefaultSettings(userID)
	}

	httputil.JSON(w, http.StatusOK, settings)
}

// UpdateSettingsRequest is the request body for updating settings. Absent
// fields keep their stored values.
type UpdateSettingsRequest struct {
	APIKey                   *string `json:"api_key,omitempty"`
	AnalysisDepth            *string `json:"analysis_depth,omitempty"`
	DailyReminder            *bool   `json:"daily_reminder,omitempty"`
	AchievementNotifications *bool   `json:"achievement_notifications,omitempty"`
	AutoAnalyze              *bool   `json:"auto_analyze,omitempty"`
}

// Update handles PUT /api/v1/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	var req UpdateSettingsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	settings, err := h.store.Get(r.Context(), userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.Error("Failed to load settings", zap.Error(err))
			httputil.ErrorFromDomain(w, err)
			return
		}
		settings = domain.DefaultSettings(userID)
	}

	if req.APIKey != nil {
		settings.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.AnalysisDepth != nil {
		depth := domain.AnalysisDepth(*req.AnalysisDepth)
		if !depth.IsValid() {
			httputil.ErrorFromDomain(w, domain.ValidationError("analysis_depth",
				"analysis_depth must be: quick, standard, or deep"))
			return
		}
		settings.AnalysisDepth = depth
	}
	if req.DailyReminder != nil {
		settings.DailyReminder = *req.DailyReminder
	}
	if req.AchievementNotifications != nil {
		settings.AchievementNotifications = *req.AchievementNotifications
	}
	if req.AutoAnalyze != nil {
		settings.AutoAnalyze = *req.AutoAnalyze
	}

	if err := h.store.Upsert(r.Context(), settings); err != nil {
		h.logger.Error("Failed to save settings", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("Settings updated", zap.String("user_id", userID.String()))

	httputil.JSON(w, http.StatusOK, settings)
}

// TestKeyRequest is the request body for testing an API key. With no key in
// the body, the stored key is tested.
type TestKeyRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// TestKeyResponse reports whether a key was accepted upstream.
type TestKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// TestKey handles POST /api/v1/settings/test-key
func (h *SettingsHandler) TestKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.JSONError(w, http.StatusUnauthorized, "MISSING_USER_ID", "user identity required", nil)
		return
	}

	var req TestKeyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		settings, err := h.store.Get(r.Context(), userID)
		if err == nil {
			apiKey = settings.APIKey
		}
	}

	if apiKey == "" {
		httputil.JSON(w, http.StatusOK, TestKeyResponse{
			Valid:   false,
			Message: "No API key configured",
		})
		return
	}

	if err := h.keys.TestKey(r.Context(), apiKey); err != nil {
		httputil.JSON(w, http.StatusOK, TestKeyResponse{
			Valid:   false,
			Message: err.Error(),
		})
		return
	}

	httputil.JSON(w, http.StatusOK, TestKeyResponse{
		Valid:   true,
		Message: "API key is valid",
	})
}
