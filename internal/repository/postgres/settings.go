package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// SettingsRepository persists per-user settings, one row per user.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// settingsRow represents the database row structure
type settingsRow struct {
	UserID                   uuid.UUID `db:"user_id"`
	APIKey                   string    `db:"api_key"`
	AnalysisDepth            string    `db:"analysis_depth"`
	DailyReminder            bool      `db:"daily_reminder"`
	AchievementNotifications bool      `db:"achievement_notifications"`
	AutoAnalyze              bool      `db:"auto_analyze"`
	UpdatedAt                time.Time `db:"updated_at"`
}

func (r *settingsRow) toDomain() *domain.Settings {
	return &domain.Settings{
		UserID:                   r.UserID,
		APIKey:                   r.APIKey,
		AnalysisDepth:            domain.AnalysisDepth(r.AnalysisDepth),
		DailyReminder:            r.DailyReminder,
		AchievementNotifications: r.AchievementNotifications,
		AutoAnalyze:              r.AutoAnalyze,
		UpdatedAt:                r.UpdatedAt,
	}
}

// Get retrieves a user's settings
func (r *SettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	query := `
		SELECT user_id, api_key, analysis_depth, daily_reminder,
		       achievement_notifications, auto_analyze, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var row settingsRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("settings", userID)
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// Upsert stores a user's settings
func (r *SettingsRepository) Upsert(ctx context.Context, settings *domain.Settings) error {
	query := `
		INSERT INTO user_settings (
			user_id, api_key, analysis_depth, daily_reminder,
			achievement_notifications, auto_analyze, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			analysis_depth = EXCLUDED.analysis_depth,
			daily_reminder = EXCLUDED.daily_reminder,
			achievement_notifications = EXCLUDED.achievement_notifications,
			auto_analyze = EXCLUDED.auto_analyze,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.UserID,
		settings.APIKey,
		string(settings.AnalysisDepth),
		settings.DailyReminder,
		settings.AchievementNotifications,
		settings.AutoAnalyze,
		time.Now().UTC(),
	)
	return err
}

// Delete removes a user's settings row
func (r *SettingsRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_settings WHERE user_id = $1`, userID)
	return err
}
