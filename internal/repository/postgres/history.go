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

// HistoryRepository persists the per-user analysis log. The log is
// newest-first and capped at domain.HistoryCap entries per user; the oldest
// entries are evicted inside the insert transaction.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// historyRow represents the database row structure
type historyRow struct {
	ID             uuid.UUID `db:"id"`
	UserID         uuid.UUID `db:"user_id"`
	Domain         string    `db:"domain"`
	CompanyName    string    `db:"company_name"`
	URL            string    `db:"url"`
	Title          string    `db:"title"`
	PageType       string    `db:"page_type"`
	Score          *int      `db:"score"`
	Breakdown      []byte    `db:"breakdown"`
	Confidence     string    `db:"confidence"`
	KeyFindings    []byte    `db:"key_findings"`
	Improvements   []byte    `db:"improvements"`
	Certifications []byte    `db:"certifications"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *historyRow) toDomain() (*domain.HistoryItem, error) {
	item := &domain.HistoryItem{
		ID:          r.ID,
		UserID:      r.UserID,
		Domain:      r.Domain,
		CompanyName: r.CompanyName,
		URL:         r.URL,
		Title:       r.Title,
		PageType:    domain.PageType(r.PageType),
		Score:       r.Score,
		Confidence:  domain.Confidence(r.Confidence),
		CreatedAt:   r.CreatedAt,
	}

	if r.Breakdown != nil {
		if err := json.Unmarshal(r.Breakdown, &item.Breakdown); err != nil {
			return nil, err
		}
	}
	if r.KeyFindings != nil {
		if err := json.Unmarshal(r.KeyFindings, &item.KeyFindings); err != nil {
			return nil, err
		}
	}
	if r.Improvements != nil {
		if err := json.Unmarshal(r.Improvements, &item.Improvements); err != nil {
			return nil, err
		}
	}
	if r.Certifications != nil {
		if err := json.Unmarshal(r.Certifications, &item.Certifications); err != nil {
			return nil, err
		}
	}

	return item, nil
}

const historyColumns = `id, user_id, domain, company_name, url, title, page_type,
       score, breakdown, confidence, key_findings, improvements, certifications,
       created_at`

// Insert appends a history item and evicts entries past the per-user cap.
func (r *HistoryRepository) Insert(ctx context.Context, item *domain.HistoryItem) error {
	breakdownJSON, err := json.Marshal(item.Breakdown)
	if err != nil {
		return err
	}
	findingsJSON, err := marshalStrings(item.KeyFindings)
	if err != nil {
		return err
	}
	improvementsJSON, err := marshalStrings(item.Improvements)
	if err != nil {
		return err
	}
	certificationsJSON, err := marshalStrings(item.Certifications)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO analysis_history (
			id, user_id, domain, company_name, url, title, page_type,
			score, breakdown, confidence, key_findings, improvements,
			certifications, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		item.ID,
		item.UserID,
		item.Domain,
		item.CompanyName,
		item.URL,
		item.Title,
		string(item.PageType),
		item.Score,
		breakdownJSON,
		string(item.Confidence),
		findingsJSON,
		improvementsJSON,
		certificationsJSON,
		item.CreatedAt,
	)
	if err != nil {
		return err
	}

	evictQuery := `
		DELETE FROM analysis_history
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM analysis_history
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )
	`

	if _, err := tx.ExecContext(ctx, evictQuery, item.UserID, domain.HistoryCap); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves a user's history, newest first.
func (r *HistoryRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.HistoryItem, error) {
	if limit <= 0 || limit > domain.HistoryCap {
		limit = domain.HistoryCap
	}

	query := `
		SELECT ` + historyColumns + `
		FROM analysis_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, err
	}

	items := make([]*domain.HistoryItem, len(rows))
	for i, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	return items, nil
}

// Count returns the number of stored history items for a user.
func (r *HistoryRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM analysis_history WHERE user_id = $1`, userID)
	return count, err
}

// Stats aggregates a user's history. Unscored entries count toward the
// total but not the averages.
func (r *HistoryRepository) Stats(ctx context.Context, userID uuid.UUID) (*domain.HistoryStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(AVG(score), 0) AS average_score,
		       COALESCE(MAX(score), 0) AS best_score
		FROM analysis_history
		WHERE user_id = $1
	`

	var stats domain.HistoryStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetByID retrieves one history item belonging to the user.
func (r *HistoryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.HistoryItem, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM analysis_history
		WHERE id = $1 AND user_id = $2
	`

	var row historyRow
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("history_item", id)
		}
		return nil, err
	}

	return row.toDomain()
}

// DeleteAll removes every history item for a user.
func (r *HistoryRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM analysis_history WHERE user_id = $1`, userID)
	return err
}

// marshalStrings encodes a string slice, defaulting nil to an empty JSON array.
func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}
