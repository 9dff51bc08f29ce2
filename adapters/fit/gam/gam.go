// Package gam is the smoothing-spline collaborator. The smooth term over
// exposure time is represented on the observed levels (one knot per distinct
// value) with a second-difference roughness penalty, and the reported
// covariance is the Bayesian posterior covariance of the penalized fit.
package gam

import (
	"context"

	"sweffect/adapters/fit/lsq"
	"sweffect/domain/effect"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"

	"gonum.org/v1/gonum/mat"
)

// Fitter fits the penalized smooth-term model for the SS family
type Fitter struct {
	lambda float64
}

// New creates a smoothing-spline fitter with the given smoothing parameter
func New(lambda float64) *Fitter {
	return &Fitter{lambda: lambda}
}

// Name returns the collaborator name
func (f *Fitter) Name() string {
	return "gam/ss"
}

// Fit evaluates the fitted smooth at each observed exposure level. With
// fewer than three distinct levels the roughness penalty has no interior
// points and the fit degenerates to the level-indicator model; that is a
// valid fit, not an error.
func (f *Fitter) Fit(ctx context.Context, design *estimation.Design) (*effect.RawFit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FittingFailed(string(effect.FamilySS), err)
	}

	x, y := lsq.WithUnitDummies(design)
	_, p := x.Dims()

	penalty := roughnessPenalty(p, design.TreatCols, f.lambda)
	fit, err := lsq.SolvePenalized(x, y, penalty)
	if err != nil {
		return nil, errors.FittingFailed(string(effect.FamilySS), err)
	}

	return &effect.RawFit{
		Coef: fit.CoefBlock(design.TreatCols),
		Cov:  fit.CovBlock(design.TreatCols),
	}, nil
}

// roughnessPenalty builds lambda * D'D where D takes second differences
// along the smooth-term coefficients and leaves every other column
// unpenalized.
func roughnessPenalty(p int, treatCols []int, lambda float64) *mat.Dense {
	k := len(treatCols)
	penalty := mat.NewDense(p, p, nil)
	if lambda == 0 || k < 3 {
		return penalty
	}

	d := mat.NewDense(k-2, k, nil)
	for i := 0; i < k-2; i++ {
		d.Set(i, i, 1)
		d.Set(i, i+1, -2)
		d.Set(i, i+2, 1)
	}
	var dtd mat.Dense
	dtd.Mul(d.T(), d)

	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			penalty.Set(treatCols[i], treatCols[j], lambda*dtd.At(i, j))
		}
	}
	return penalty
}
