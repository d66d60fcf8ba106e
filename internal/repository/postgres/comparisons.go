package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// ComparisonRepository persists the pinned comparison set. Entries are keyed
// by (user, domain): re-adding a domain replaces its entry, and the set is
// capped at domain.ComparisonCap with the oldest entry evicted on overflow.
type ComparisonRepository struct {
	db *sqlx.DB
}

// NewComparisonRepository creates a new comparison repository
func NewComparisonRepository(db *sqlx.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// comparisonRow represents the database row structure
type comparisonRow struct {
	UserID      uuid.UUID `db:"user_id"`
	Domain      string    `db:"domain"`
	CompanyName string    `db:"company_name"`
	Score       *int      `db:"score"`
	Breakdown   []byte    `db:"breakdown"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *comparisonRow) toDomain() (*domain.Comparison, error) {
	comparison := &domain.Comparison{
		UserID:      r.UserID,
		Domain:      r.Domain,
		CompanyName: r.CompanyName,
		Score:       r.Score,
		CreatedAt:   r.CreatedAt,
	}

	if r.Breakdown != nil {
		if err := json.Unmarshal(r.Breakdown, &comparison.Breakdown); err != nil {
			return nil, err
		}
	}

	return comparison, nil
}

// Upsert adds a comparison or replaces the entry for the same domain, then
// evicts the oldest entries past the cap.
func (r *ComparisonRepository) Upsert(ctx context.Context, comparison *domain.Comparison) error {
	breakdownJSON, err := json.Marshal(comparison.Breakdown)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsertQuery := `
		INSERT INTO comparisons (user_id, domain, company_name, score, breakdown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, domain) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			score = EXCLUDED.score,
			breakdown = EXCLUDED.breakdown,
			created_at = EXCLUDED.created_at
	`

	_, err = tx.ExecContext(ctx, upsertQuery,
		comparison.UserID,
		comparison.Domain,
		comparison.CompanyName,
		comparison.Score,
		breakdownJSON,
		comparison.CreatedAt,
	)
	if err != nil {
		return err
	}

	evictQuery := `
		DELETE FROM comparisons
		WHERE user_id = $1
		  AND domain NOT IN (
			SELECT domain FROM comparisons
			WHERE user_id = $1
			ORDER BY created_at DESC, domain DESC
			LIMIT $2
		  )
	`

	if _, err := tx.ExecContext(ctx, evictQuery, comparison.UserID, domain.ComparisonCap); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves a user's comparison set, newest first.
func (r *ComparisonRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.Comparison, error) {
	query := `
		SELECT user_id, domain, company_name, score, breakdown, created_at
		FROM comparisons
		WHERE user_id = $1
		ORDER BY created_at DESC, domain DESC
	`

	var rows []comparisonRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	comparisons := make([]*domain.Comparison, len(rows))
	for i, row := range rows {
		comparison, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		comparisons[i] = comparison
	}

	return comparisons, nil
}

// Delete removes one comparison by domain
func (r *ComparisonRepository) Delete(ctx context.Context, userID uuid.UUID, companyDomain string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comparisons WHERE user_id = $1 AND domain = $2`,
		userID, companyDomain)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NotFoundError("comparison", companyDomain)
	}

	return nil
}

// DeleteAll removes every comparison for a user
func (r *ComparisonRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM comparisons WHERE user_id = $1`, userID)
	return err
}
