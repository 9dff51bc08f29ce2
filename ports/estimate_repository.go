package ports

import (
	"context"

	"sweffect/domain/core"
	"sweffect/domain/effect"
)

// EstimateRepository persists completed estimation runs
type EstimateRepository interface {
	Save(ctx context.Context, est *effect.Estimate) error
	GetByID(ctx context.Context, id core.EstimateID) (*effect.Estimate, error)
	List(ctx context.Context, limit int) ([]*effect.Estimate, error)
}
