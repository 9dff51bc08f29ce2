// Package lsq holds the shared least-squares machinery used by the
// deterministic fitting collaborators.
package lsq

import (
	"fmt"
	"math"

	"sweffect/internal/estimation"

	"gonum.org/v1/gonum/mat"
)

// Fit is a solved (optionally penalized) least-squares problem
type Fit struct {
	Beta []float64
	// AInv is (X'X + P)^-1, the unscaled coefficient covariance
	AInv   *mat.Dense
	Sigma2 float64
	N      int
	P      int
}

// WithUnitDummies appends one indicator column per unit (first unit as
// reference) to a design, absorbing unit-level intercepts as fixed effects.
func WithUnitDummies(d *estimation.Design) (*mat.Dense, []float64) {
	n, p := d.X.Dims()
	extra := d.UnitCount - 1
	x := mat.NewDense(n, p+extra, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < p; c++ {
			x.Set(i, c, d.X.At(i, c))
		}
		if u := d.Units[i]; u > 0 {
			x.Set(i, p+u-1, 1)
		}
	}
	return x, d.Y
}

// Solve computes the ordinary least-squares fit of y on x
func Solve(x *mat.Dense, y []float64) (*Fit, error) {
	return SolvePenalized(x, y, nil)
}

// SolvePenalized computes the ridge-type fit (X'X + P)^-1 X'y. A nil penalty
// gives ordinary least squares. The residual variance uses n - p degrees of
// freedom; with no residual degrees of freedom it is zero.
func SolvePenalized(x *mat.Dense, y []float64, penalty *mat.Dense) (*Fit, error) {
	n, p := x.Dims()
	if n < p {
		return nil, fmt.Errorf("least squares needs at least %d observations, got %d", p, n)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	if penalty != nil {
		xtx.Add(&xtx, penalty)
	}

	var aInv mat.Dense
	if err := aInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("normal equations are singular: %w", err)
	}

	yVec := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yVec)

	var betaVec mat.VecDense
	betaVec.MulVec(&aInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &betaVec)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}

	sigma2 := 0.0
	if n > p {
		sigma2 = rss / float64(n-p)
	}
	if math.IsNaN(sigma2) || math.IsInf(sigma2, 0) {
		return nil, fmt.Errorf("residual variance is not finite")
	}

	beta := make([]float64, p)
	for i := range beta {
		beta[i] = betaVec.AtVec(i)
	}

	return &Fit{Beta: beta, AInv: &aInv, Sigma2: sigma2, N: n, P: p}, nil
}

// CoefBlock extracts the coefficients at the given columns
func (f *Fit) CoefBlock(cols []int) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = f.Beta[c]
	}
	return out
}

// CovBlock extracts the scaled covariance submatrix for the given columns
func (f *Fit) CovBlock(cols []int) *mat.SymDense {
	k := len(cols)
	cov := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := 0.5 * (f.AInv.At(cols[i], cols[j]) + f.AInv.At(cols[j], cols[i]))
			cov.SetSym(i, j, f.Sigma2*v)
		}
	}
	return cov
}
