package estimation

import (
	"fmt"

	"sweffect/domain/effect"
	"sweffect/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// TransformMatrix builds the fixed lower-triangular map B from a family's
// native increment coefficients to the cumulative per-period effect curve.
//
//	hinge basis: B[r,c] = max(0, r-c+1)  (arithmetic-progression weights)
//	step basis:  B[r,c] = 1 for c <= r   (cumulative sum)
//	otherwise:   identity (the native basis already is the curve)
func TransformMatrix(basis effect.BasisKind, k int) *mat.Dense {
	b := mat.NewDense(k, k, nil)
	for r := 0; r < k; r++ {
		for c := 0; c <= r; c++ {
			switch basis {
			case effect.BasisHinge:
				b.Set(r, c, float64(r-c+1))
			case effect.BasisStep:
				b.Set(r, c, 1)
			default:
				if r == c {
					b.Set(r, c, 1)
				}
			}
		}
	}
	return b
}

// ToCumulative re-bases a raw fit into the cumulative effect curve,
// propagating the covariance exactly: theta = B*beta, sigma = B*Sigma*B'.
func ToCumulative(raw *effect.RawFit, basis effect.BasisKind) (*effect.CumulativeEffectCurve, error) {
	k := raw.Dim()
	if k == 0 {
		return nil, errors.InternalError("raw fit has no coefficients")
	}
	if raw.Cov == nil {
		return nil, errors.InternalError("raw fit has no covariance")
	}
	if cr, _ := raw.Cov.Dims(); cr != k {
		return nil, errors.InternalError(
			fmt.Sprintf("raw fit covariance is %dx%d for %d coefficients", cr, cr, k))
	}

	b := TransformMatrix(basis, k)

	beta := mat.NewVecDense(k, raw.Coef)
	var thetaVec mat.VecDense
	thetaVec.MulVec(b, beta)

	var bs, bsbt mat.Dense
	bs.Mul(b, raw.Cov)
	bsbt.Mul(&bs, b.T())

	theta := make([]float64, k)
	copy(theta, thetaVec.RawVector().Data)

	sigma := mat.NewSymDense(k, nil)
	for r := 0; r < k; r++ {
		for c := r; c < k; c++ {
			// Average the off-diagonal pair to absorb floating-point
			// asymmetry.
			sigma.SetSym(r, c, 0.5*(bsbt.At(r, c)+bsbt.At(c, r)))
		}
	}

	return &effect.CumulativeEffectCurve{Theta: theta, Sigma: sigma}, nil
}
