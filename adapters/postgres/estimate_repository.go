package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sweffect/domain/core"
	"sweffect/domain/effect"
	"sweffect/ports"

	"github.com/jmoiron/sqlx"
)

// estimateRepository implements the EstimateRepository interface
type estimateRepository struct {
	db *sqlx.DB
}

// NewEstimateRepository creates a new estimate repository
func NewEstimateRepository(db *sqlx.DB) ports.EstimateRepository {
	return &estimateRepository{db: db}
}

// EnsureSchema creates the estimates table if it does not exist
func EnsureSchema(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS estimates (
		id TEXT PRIMARY KEY,
		family TEXT NOT NULL,
		enforce TEXT NOT NULL DEFAULT '',
		effect_reached INTEGER NOT NULL DEFAULT 0,
		ate DOUBLE PRECISION NOT NULL,
		se_ate DOUBLE PRECISION NOT NULL,
		lte DOUBLE PRECISION NOT NULL,
		se_lte DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create estimates table: %w", err)
	}
	return nil
}

// Save inserts a completed estimate
func (r *estimateRepository) Save(ctx context.Context, est *effect.Estimate) error {
	query := `INSERT INTO estimates (
		id, family, enforce, effect_reached, ate, se_ate, lte, se_lte, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		string(est.ID), string(est.Spec.Family), string(est.Spec.Enforce), est.Spec.EffectReached,
		est.Result.ATE, est.Result.SEATE, est.Result.LTE, est.Result.SELTE,
		est.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}
	return nil
}

// GetByID retrieves an estimate by its ID
func (r *estimateRepository) GetByID(ctx context.Context, id core.EstimateID) (*effect.Estimate, error) {
	query := `SELECT id, family, enforce, effect_reached, ate, se_ate, lte, se_lte, created_at
	FROM estimates WHERE id = $1`

	est, err := scanEstimate(r.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrEstimateNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return est, nil
}

// List returns the most recent estimates. A non-positive limit falls back to
// a sane page size.
func (r *estimateRepository) List(ctx context.Context, limit int) ([]*effect.Estimate, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, family, enforce, effect_reached, ate, se_ate, lte, se_lte, created_at
	FROM estimates ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var out []*effect.Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		out = append(out, est)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEstimate(row rowScanner) (*effect.Estimate, error) {
	var est effect.Estimate
	var id, family, enforce string
	var createdAt time.Time

	err := row.Scan(
		&id, &family, &enforce, &est.Spec.EffectReached,
		&est.Result.ATE, &est.Result.SEATE, &est.Result.LTE, &est.Result.SELTE,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	est.ID = core.EstimateID(id)
	est.Spec.Family = effect.Family(family)
	est.Spec.Enforce = effect.Enforcement(enforce)
	est.CreatedAt = core.NewTimestamp(createdAt)
	return &est, nil
}
