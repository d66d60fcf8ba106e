package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// ProgressRepository persists gamification state, one row per user.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// progressRow represents the database row structure
type progressRow struct {
	UserID             uuid.UUID `db:"user_id"`
	Level              int       `db:"level"`
	XP                 int       `db:"xp"`
	Streak             int       `db:"streak"`
	TotalAnalyses      int       `db:"total_analyses"`
	HighestScore       int       `db:"highest_score"`
	CarbonTrackingDays int       `db:"carbon_tracking_days"`
	CompaniesCompared  int       `db:"companies_compared"`
	Achievements       []byte    `db:"achievements"`
	LastAnalysisDay    string    `db:"last_analysis_day"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r *progressRow) toDomain() (*domain.UserProgress, error) {
	progress := &domain.UserProgress{
		UserID:             r.UserID,
		Level:              r.Level,
		XP:                 r.XP,
		Streak:             r.Streak,
		TotalAnalyses:      r.TotalAnalyses,
		HighestScore:       r.HighestScore,
		CarbonTrackingDays: r.CarbonTrackingDays,
		CompaniesCompared:  r.CompaniesCompared,
		Achievements:       []string{},
		LastAnalysisDay:    r.LastAnalysisDay,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.Achievements != nil {
		if err := json.Unmarshal(r.Achievements, &progress.Achievements); err != nil {
			return nil, err
		}
	}

	return progress, nil
}

// Get retrieves a user's progress
func (r *ProgressRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	query := `
		SELECT user_id, level, xp, streak, total_analyses, highest_score,
		       carbon_tracking_days, companies_compared, achievements,
		       last_analysis_day, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var row progressRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("progress", userID)
		}
		return nil, err
	}

	return row.toDomain()
}

// Save upserts a user's progress
func (r *ProgressRepository) Save(ctx context.Context, progress *domain.UserProgress) error {
	achievementsJSON, err := marshalStrings(progress.Achievements)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_progress (
			user_id, level, xp, streak, total_analyses, highest_score,
			carbon_tracking_days, companies_compared, achievements,
			last_analysis_day, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			streak = EXCLUDED.streak,
			total_analyses = EXCLUDED.total_analyses,
			highest_score = EXCLUDED.highest_score,
			carbon_tracking_days = EXCLUDED.carbon_tracking_days,
			companies_compared = EXCLUDED.companies_compared,
			achievements = EXCLUDED.achievements,
			last_analysis_day = EXCLUDED.last_analysis_day,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		progress.UserID,
		progress.Level,
		progress.XP,
		progress.Streak,
		progress.TotalAnalyses,
		progress.HighestScore,
		progress.CarbonTrackingDays,
		progress.CompaniesCompared,
		achievementsJSON,
		progress.LastAnalysisDay,
		progress.CreatedAt,
		time.Now().UTC(),
	)
	return err
}

// IncrementCompaniesCompared bumps the comparison counter used by the
// comparison_king achievement. Missing rows are created on first increment.
func (r *ProgressRepository) IncrementCompaniesCompared(ctx context.Context, userID uuid.UUID) error {
	progress, err := r.Get(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return err
		}
		progress = domain.NewUserProgress(userID)
	}

	progress.CompaniesCompared++
	return r.Save(ctx, progress)
}

// Delete removes a user's progress row
func (r *ProgressRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_progress WHERE user_id = $1`, userID)
	return err
}
