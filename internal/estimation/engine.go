package estimation

import (
	"context"

	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal"
)

// ModelFitter is the seam to an external fitting collaborator. It consumes a
// prepared design and returns point estimates and a covariance matrix in the
// family's native basis, restricted to the treatment coefficients.
type ModelFitter interface {
	Name() string
	Fit(ctx context.Context, design *Design) (*effect.RawFit, error)
}

// FitterFactory resolves a method spec to the collaborator that implements
// its family. Selection happens once per estimation call; downstream stages
// never branch on the family again except through the basis kind.
type FitterFactory func(spec effect.MethodSpec) (ModelFitter, error)

// Engine runs the five-stage estimation pipeline: recode, basis build, fit,
// cumulative re-basis, aggregate. Each stage's output is the next stage's
// sole input; a failing stage fails the whole call with no partial result.
type Engine struct {
	newFitter FitterFactory
	log       *internal.Logger
}

// NewEngine creates an estimation engine around a fitter factory
func NewEngine(factory FitterFactory) *Engine {
	return &Engine{
		newFitter: factory,
		log:       internal.NewDefaultLogger(),
	}
}

// Estimate fits the requested model family to the dataset and reduces it to
// the average and long-term treatment effect.
func (e *Engine) Estimate(ctx context.Context, ds *study.Dataset, spec effect.MethodSpec) (*effect.EstimationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	recoded, err := study.Recode(ds, spec.EffectReached)
	if err != nil {
		return nil, err
	}

	design, err := BuildDesign(recoded, spec.Family)
	if err != nil {
		return nil, err
	}
	e.log.Debug("built %s design: %d rows, %d columns, %d treatment terms",
		spec.Family, design.Rows(), design.Cols(), design.TreatWidth())

	fitter, err := e.newFitter(spec)
	if err != nil {
		return nil, err
	}

	raw, err := fitter.Fit(ctx, design)
	if err != nil {
		return nil, err
	}
	e.log.Debug("fitter %s returned %d coefficients", fitter.Name(), raw.Dim())

	curve, err := ToCumulative(raw, design.Basis)
	if err != nil {
		return nil, err
	}

	result, err := Aggregate(curve, spec, design.TimePoints)
	if err != nil {
		return nil, err
	}
	e.log.Info("family=%s ate=%.6g (se %.6g) lte=%.6g (se %.6g)",
		spec.Family, result.ATE, result.SEATE, result.LTE, result.SELTE)
	return result, nil
}
