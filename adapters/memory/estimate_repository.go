// Package memory provides in-process repository implementations used when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"sweffect/domain/core"
	"sweffect/domain/effect"
	"sweffect/ports"
)

// estimateRepository keeps estimates in a mutex-guarded map
type estimateRepository struct {
	mu        sync.RWMutex
	estimates map[core.EstimateID]*effect.Estimate
}

// NewEstimateRepository creates an in-memory estimate repository
func NewEstimateRepository() ports.EstimateRepository {
	return &estimateRepository{estimates: make(map[core.EstimateID]*effect.Estimate)}
}

func (r *estimateRepository) Save(ctx context.Context, est *effect.Estimate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *est
	r.estimates[est.ID] = &copied
	return nil
}

func (r *estimateRepository) GetByID(ctx context.Context, id core.EstimateID) (*effect.Estimate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	est, ok := r.estimates[id]
	if !ok {
		return nil, core.ErrEstimateNotFound
	}
	copied := *est
	return &copied, nil
}

func (r *estimateRepository) List(ctx context.Context, limit int) ([]*effect.Estimate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*effect.Estimate, 0, len(r.estimates))
	for _, est := range r.estimates {
		copied := *est
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
