package app

import (
	"context"

	"sweffect/domain/core"
	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal/estimation"
	"sweffect/ports"
)

// EstimationService orchestrates one estimation use case: load the dataset,
// run the engine, persist the stamped result.
type EstimationService struct {
	reader ports.DatasetReader
	repo   ports.EstimateRepository
	engine *estimation.Engine
}

// NewEstimationService creates an estimation service
func NewEstimationService(reader ports.DatasetReader, repo ports.EstimateRepository, engine *estimation.Engine) *EstimationService {
	return &EstimationService{reader: reader, repo: repo, engine: engine}
}

// EstimateDataset runs the engine on an in-memory dataset and persists the
// result.
func (s *EstimationService) EstimateDataset(ctx context.Context, ds *study.Dataset, spec effect.MethodSpec) (*effect.Estimate, error) {
	result, err := s.engine.Estimate(ctx, ds, spec)
	if err != nil {
		return nil, err
	}

	est := effect.NewEstimate(spec, *result)
	if err := s.repo.Save(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// EstimateFromFile loads a dataset file through the reader port and estimates
// from it.
func (s *EstimationService) EstimateFromFile(ctx context.Context, path string, extraTimePoints int, spec effect.MethodSpec) (*effect.Estimate, error) {
	ds, err := s.reader.Read(ctx, path, extraTimePoints)
	if err != nil {
		return nil, err
	}
	return s.EstimateDataset(ctx, ds, spec)
}

// GetEstimate fetches a stored estimate
func (s *EstimationService) GetEstimate(ctx context.Context, id string) (*effect.Estimate, error) {
	return s.repo.GetByID(ctx, core.EstimateID(id))
}

// ListEstimates returns the most recent stored estimates
func (s *EstimationService) ListEstimates(ctx context.Context, limit int) ([]*effect.Estimate, error) {
	return s.repo.List(ctx, limit)
}
