package estimation

import (
	"math"
	"math/rand"
	"testing"

	"sweffect/domain/effect"
	"sweffect/internal/errors"

	"gonum.org/v1/gonum/mat"
)

const weightTol = 1e-12

func TestWeights_UniformByDefault(t *testing.T) {
	w, err := Weights(effect.FamilyETI, 3, 4, 0)
	if err != nil {
		t.Fatalf("Weights failed: %v", err)
	}
	for i, wi := range w {
		if math.Abs(wi-1.0/3) > weightTol {
			t.Errorf("w[%d] = %g, want 1/3", i, wi)
		}
	}
}

func TestWeights_RiemannCollapseAtHorizon(t *testing.T) {
	// J=4, R=2: the last observed level stands in for periods 2 and 3.
	w, err := Weights(effect.FamilyETI, 2, 4, 2)
	if err != nil {
		t.Fatalf("Weights failed: %v", err)
	}
	if math.Abs(w[0]-1.0/3) > weightTol || math.Abs(w[1]-2.0/3) > weightTol {
		t.Errorf("w = %v, want [1/3 2/3]", w)
	}
}

func TestWeights_RiemannOnlyForLevelFamilies(t *testing.T) {
	// A step family at the same horizon keeps uniform weights.
	w, err := Weights(effect.FamilyStepLaplace, 2, 4, 2)
	if err != nil {
		t.Fatalf("Weights failed: %v", err)
	}
	for i, wi := range w {
		if math.Abs(wi-1.0/3) > weightTol {
			t.Errorf("w[%d] = %g, want 1/3", i, wi)
		}
	}
}

func TestWeights_SumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fams := []effect.Family{effect.FamilyETI, effect.FamilySS, effect.FamilyStepLaplace, effect.FamilyMCMCSpline}
	for trial := 0; trial < 200; trial++ {
		j := 3 + rng.Intn(10)
		r := rng.Intn(j)
		fam := fams[rng.Intn(len(fams))]

		// Fixed-width bases always span J-1 increments; level families see
		// their curve truncated at the horizon.
		l := j - 1
		if r > 0 && r < l && (fam == effect.FamilyETI || fam == effect.FamilySS) {
			l = r
		}

		w, err := Weights(fam, l, j, r)
		if err != nil {
			t.Fatalf("Weights(%s, %d, %d, %d) failed: %v", fam, l, j, r, err)
		}
		sum := 0.0
		for _, wi := range w {
			sum += wi
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("Weights(%s, %d, %d, %d) sum to %g, want 1", fam, l, j, r, sum)
		}
	}
}

func diagCurve(theta []float64, v float64) *effect.CumulativeEffectCurve {
	k := len(theta)
	sigma := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		sigma.SetSym(i, i, v)
	}
	return &effect.CumulativeEffectCurve{Theta: theta, Sigma: sigma}
}

func TestAggregate_UniformAverage(t *testing.T) {
	curve := diagCurve([]float64{1, 2, 3}, 0.1)
	spec := effect.MethodSpec{Family: effect.FamilyETI}

	res, err := Aggregate(curve, spec, 4)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if math.Abs(res.ATE-2.0) > weightTol {
		t.Errorf("ate = %g, want 2.0", res.ATE)
	}
	if want := math.Sqrt(0.1 / 3); math.Abs(res.SEATE-want) > weightTol {
		t.Errorf("se(ate) = %g, want %g", res.SEATE, want)
	}
	if res.LTE != 3.0 {
		t.Errorf("lte = %g, want 3.0", res.LTE)
	}
	if want := math.Sqrt(0.1); math.Abs(res.SELTE-want) > weightTol {
		t.Errorf("se(lte) = %g, want %g", res.SELTE, want)
	}
}

func TestAggregate_RiemannWeighting(t *testing.T) {
	curve := diagCurve([]float64{1, 2}, 0.1)
	spec := effect.MethodSpec{Family: effect.FamilyETI, EffectReached: 2}

	res, err := Aggregate(curve, spec, 4)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	wantATE := 1.0/3 + 2*2.0/3
	if math.Abs(res.ATE-wantATE) > weightTol {
		t.Errorf("ate = %g, want %g", res.ATE, wantATE)
	}
	wantVar := 0.1*(1.0/9) + 0.1*(4.0/9)
	if math.Abs(res.SEATE-math.Sqrt(wantVar)) > weightTol {
		t.Errorf("se(ate) = %g, want %g", res.SEATE, math.Sqrt(wantVar))
	}
	if res.LTE != 2.0 {
		t.Errorf("lte = %g, want 2.0", res.LTE)
	}
}

func TestAggregate_SingleCoefficientFamily(t *testing.T) {
	curve := diagCurve([]float64{-0.8}, 0.04)
	spec := effect.MethodSpec{Family: effect.FamilyHH}

	res, err := Aggregate(curve, spec, 7)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if res.ATE != res.LTE || res.SEATE != res.SELTE {
		t.Errorf("single-coefficient family should report identical summaries, got %+v", res)
	}
	if res.ATE != -0.8 || res.SEATE != 0.2 {
		t.Errorf("got ate %g (se %g), want -0.8 (0.2)", res.ATE, res.SEATE)
	}
}

func TestAggregate_SurfacesNegativeVariance(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{0.1, -0.5, -0.5, 0.1})
	curve := &effect.CumulativeEffectCurve{Theta: []float64{1, 2}, Sigma: sigma}
	spec := effect.MethodSpec{Family: effect.FamilyETI}

	_, err := Aggregate(curve, spec, 4)
	if err == nil {
		t.Fatal("negative propagated variance should be surfaced")
	}
	if errors.GetCode(err) != errors.CodeNonPositiveVariance {
		t.Errorf("expected %s, got %s", errors.CodeNonPositiveVariance, errors.GetCode(err))
	}
}
