// Package lmm is the linear mixed-model collaborator for the unstructured
// families. Unit-level intercepts are absorbed as fixed effects (the
// within-unit estimator), which targets the same treatment coefficients as a
// random-intercept fit.
package lmm

import (
	"context"
	"fmt"

	"sweffect/adapters/fit/lsq"
	"sweffect/domain/effect"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"
)

// Fitter fits the overall-indicator (HH) or level-indicator (ETI) model
type Fitter struct {
	family effect.Family
}

// New creates a mixed-model fitter for the given family
func New(family effect.Family) *Fitter {
	return &Fitter{family: family}
}

// Name returns the collaborator name
func (f *Fitter) Name() string {
	return fmt.Sprintf("lmm/%s", f.family)
}

// Fit solves the within-unit least-squares problem and restricts the output
// to the treatment-effect coefficients.
func (f *Fitter) Fit(ctx context.Context, design *estimation.Design) (*effect.RawFit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FittingFailed(string(f.family), err)
	}

	x, y := lsq.WithUnitDummies(design)
	fit, err := lsq.Solve(x, y)
	if err != nil {
		return nil, errors.FittingFailed(string(f.family), err)
	}

	return &effect.RawFit{
		Coef: fit.CoefBlock(design.TreatCols),
		Cov:  fit.CovBlock(design.TreatCols),
	}, nil
}
