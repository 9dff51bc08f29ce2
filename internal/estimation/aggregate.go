package estimation

import (
	"fmt"
	"math"

	"sweffect/domain/effect"
	"sweffect/internal/errors"
)

// Weights builds the exposure-time weighting vector A for a curve of length
// l, already normalized by J-1. When an effect-reached horizon R is assumed
// and the family indexes the curve by observed levels (level-indicator and
// smoothing families), the levels at the ceiling collapse into a single
// right-hand Riemann weight of J-R periods. The unnormalized weights always
// sum to J-1.
func Weights(fam effect.Family, l, j, r int) ([]float64, error) {
	if l < 1 {
		return nil, errors.InternalError("effect curve is empty")
	}
	if j < 2 {
		return nil, errors.InternalError(fmt.Sprintf("time point count %d too small for weighting", j))
	}

	norm := float64(j - 1)
	w := make([]float64, l)

	riemann := r > 0 && r < j && l == r &&
		(fam == effect.FamilyETI || fam == effect.FamilySS)
	if riemann {
		for i := 0; i < l-1; i++ {
			w[i] = 1 / norm
		}
		w[l-1] = float64(j-r) / norm
		return w, nil
	}

	for i := range w {
		w[i] = 1 / norm
	}
	return w, nil
}

// Aggregate reduces a cumulative effect curve to the average and long-term
// effect with standard errors. The single-coefficient family reports the same
// number for both by construction. A propagated covariance that turns
// negative under the weights is surfaced, never clamped.
func Aggregate(curve *effect.CumulativeEffectCurve, spec effect.MethodSpec, j int) (*effect.EstimationResult, error) {
	l := curve.Len()
	if l == 0 {
		return nil, errors.InternalError("effect curve is empty")
	}
	if sr, _ := curve.Sigma.Dims(); sr != l {
		return nil, errors.InternalError(
			fmt.Sprintf("curve covariance is %dx%d for %d levels", sr, sr, l))
	}

	lte := curve.Theta[l-1]
	lteVar := curve.Sigma.At(l-1, l-1)
	if lteVar < 0 {
		return nil, errors.NonPositiveVariance("lte", lteVar)
	}
	seLTE := math.Sqrt(lteVar)

	if spec.Family == effect.FamilyHH {
		// No exposure-time structure: ATE and LTE are the same scalar.
		return &effect.EstimationResult{ATE: lte, SEATE: seLTE, LTE: lte, SELTE: seLTE}, nil
	}

	w, err := Weights(spec.Family, l, j, spec.EffectReached)
	if err != nil {
		return nil, err
	}

	ate := 0.0
	for i, wi := range w {
		ate += wi * curve.Theta[i]
	}

	ateVar := 0.0
	for a, wa := range w {
		for b, wb := range w {
			ateVar += wa * wb * curve.Sigma.At(a, b)
		}
	}
	if ateVar < 0 {
		return nil, errors.NonPositiveVariance("ate", ateVar)
	}

	return &effect.EstimationResult{
		ATE:   ate,
		SEATE: math.Sqrt(ateVar),
		LTE:   lte,
		SELTE: seLTE,
	}, nil
}
