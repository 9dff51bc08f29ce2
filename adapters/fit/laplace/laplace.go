// Package laplace is the Gaussian-approximation collaborator for the step
// families: the posterior is approximated by a Gaussian centered at the
// penalized mode, which for this linear model is the least-squares solution.
package laplace

import (
	"context"
	"fmt"

	"sweffect/adapters/fit/lsq"
	"sweffect/domain/effect"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"

	"gonum.org/v1/gonum/mat"
)

// Fitter fits the step-increment model by Laplace approximation
type Fitter struct {
	monotone bool
}

// New creates a Laplace fitter; monotone enables the non-positivity
// constraint on the increments.
func New(monotone bool) *Fitter {
	return &Fitter{monotone: monotone}
}

func (f *Fitter) family() effect.Family {
	if f.monotone {
		return effect.FamilyStepMonotoneLaplace
	}
	return effect.FamilyStepLaplace
}

// Name returns the collaborator name
func (f *Fitter) Name() string {
	return fmt.Sprintf("laplace/%s", f.family())
}

// Fit computes the approximate posterior mean and covariance of the step
// increments. The constrained variant finds the mode by active-set
// projection: increments that come out positive are clamped to zero and the
// remaining columns are refitted. The covariance is the Gaussian curvature
// over the free coordinates, with zero rows and columns for clamped ones, so
// the constrained variant reports real standard errors instead of reusing an
// unrelated matrix.
func (f *Fitter) Fit(ctx context.Context, design *estimation.Design) (*effect.RawFit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FittingFailed(string(f.family()), err)
	}

	x, y := lsq.WithUnitDummies(design)

	if !f.monotone {
		fit, err := lsq.Solve(x, y)
		if err != nil {
			return nil, errors.FittingFailed(string(f.family()), err)
		}
		return &effect.RawFit{
			Coef: fit.CoefBlock(design.TreatCols),
			Cov:  fit.CovBlock(design.TreatCols),
		}, nil
	}

	return f.fitConstrained(x, y, design.TreatCols)
}

func (f *Fitter) fitConstrained(x *mat.Dense, y []float64, treatCols []int) (*effect.RawFit, error) {
	k := len(treatCols)
	clamped := make([]bool, k)

	for {
		free := make([]int, 0, k)
		for i := 0; i < k; i++ {
			if !clamped[i] {
				free = append(free, i)
			}
		}

		fit, err := lsq.Solve(dropColumns(x, clampedCols(treatCols, clamped)), y)
		if err != nil {
			return nil, errors.FittingFailed(string(f.family()), err)
		}

		// Treatment columns keep their relative order after the drop.
		freeCols := make([]int, len(free))
		for i, fi := range free {
			freeCols[i] = shiftedIndex(treatCols[fi], clampedCols(treatCols, clamped))
		}

		worst, worstVal := -1, 0.0
		for i, c := range freeCols {
			if v := fit.Beta[c]; v > worstVal {
				worst, worstVal = free[i], v
			}
		}
		if worst >= 0 {
			clamped[worst] = true
			continue
		}

		coef := make([]float64, k)
		cov := mat.NewSymDense(k, nil)
		freeCov := fit.CovBlock(freeCols)
		for i, fi := range free {
			coef[fi] = fit.Beta[freeCols[i]]
			for jj, fj := range free {
				if jj < i {
					continue
				}
				cov.SetSym(fi, fj, freeCov.At(i, jj))
			}
		}
		return &effect.RawFit{Coef: coef, Cov: cov}, nil
	}
}

// clampedCols lists the absolute column indices currently clamped to zero
func clampedCols(treatCols []int, clamped []bool) []int {
	out := make([]int, 0)
	for i, c := range treatCols {
		if clamped[i] {
			out = append(out, c)
		}
	}
	return out
}

// shiftedIndex maps an absolute column index to its position after the
// given columns are removed.
func shiftedIndex(col int, removed []int) int {
	shift := 0
	for _, r := range removed {
		if r < col {
			shift++
		}
	}
	return col - shift
}

// dropColumns returns a copy of x without the given columns
func dropColumns(x *mat.Dense, cols []int) *mat.Dense {
	if len(cols) == 0 {
		return x
	}
	drop := make(map[int]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	n, p := x.Dims()
	out := mat.NewDense(n, p-len(cols), nil)
	for i := 0; i < n; i++ {
		oc := 0
		for c := 0; c < p; c++ {
			if drop[c] {
				continue
			}
			out.Set(i, oc, x.At(i, c))
			oc++
		}
	}
	return out
}
