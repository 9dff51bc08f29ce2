package gam

import (
	"context"
	"math"
	"testing"

	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal/estimation"
)

func noiselessDataset(adoptPeriods []int, curve []float64) *study.Dataset {
	var records []study.Record
	for u, adoptAt := range adoptPeriods {
		for p := 1; p <= 4; p++ {
			rec := study.Record{UnitID: u + 1, Period: p}
			outcome := 5*float64(u+1) + 0.3*float64(p)
			if p >= adoptAt {
				rec.Treated = 1
				rec.Exposure = p - adoptAt + 1
				outcome += curve[rec.Exposure-1]
			}
			rec.Outcome = outcome
			records = append(records, rec)
		}
	}
	return &study.Dataset{Records: records, Params: study.DesignParams{TimePoints: 4}}
}

func TestFitter_DegeneratesToLevelsWithTwoKnots(t *testing.T) {
	// Late adopters only: exposures 1 and 2 are observed, so the roughness
	// penalty has no interior point and the fit is the plain level model.
	ds := noiselessDataset([]int{3, 4, 3, 4}, []float64{-1, -2})
	design, err := estimation.BuildDesign(ds, effect.FamilySS)
	if err != nil {
		t.Fatalf("BuildDesign failed: %v", err)
	}
	if design.TreatWidth() != 2 {
		t.Fatalf("expected 2 smooth-term knots, got %d", design.TreatWidth())
	}

	raw, err := New(1.6).Fit(context.Background(), design)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for i, want := range []float64{-1, -2} {
		if math.Abs(raw.Coef[i]-want) > 1e-8 {
			t.Errorf("knot %d: got %g, want %g", i+1, raw.Coef[i], want)
		}
	}
}

func TestFitter_PenaltyPreservesLinearCurve(t *testing.T) {
	// The second-difference penalty vanishes on a linear curve, so even heavy
	// smoothing leaves it untouched.
	ds := noiselessDataset([]int{2, 3, 4, 2, 3, 4}, []float64{-1, -2, -3})
	design, err := estimation.BuildDesign(ds, effect.FamilySS)
	if err != nil {
		t.Fatalf("BuildDesign failed: %v", err)
	}

	raw, err := New(50).Fit(context.Background(), design)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for i, want := range []float64{-1, -2, -3} {
		if math.Abs(raw.Coef[i]-want) > 1e-6 {
			t.Errorf("knot %d: got %g, want %g", i+1, raw.Coef[i], want)
		}
	}
}

func TestRoughnessPenalty(t *testing.T) {
	penalty := roughnessPenalty(10, []int{4, 5, 6}, 2)

	// D'D for three knots is the tridiagonal [1 -2 1] outer product.
	want := [3][3]float64{
		{1, -2, 1},
		{-2, 4, -2},
		{1, -2, 1},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if got := penalty.At(4+i, 4+j); got != 2*want[i][j] {
				t.Errorf("penalty[%d,%d] = %g, want %g", 4+i, 4+j, got, 2*want[i][j])
			}
		}
	}
	// Columns outside the smooth term stay unpenalized.
	if got := penalty.At(0, 0); got != 0 {
		t.Errorf("intercept penalty = %g, want 0", got)
	}

	// Fewer than three knots or zero lambda disables the penalty entirely.
	for _, p := range []struct {
		cols   []int
		lambda float64
	}{
		{[]int{4, 5}, 2},
		{[]int{4, 5, 6}, 0},
	} {
		pen := roughnessPenalty(10, p.cols, p.lambda)
		for i := 0; i < 10; i++ {
			for j := 0; j < 10; j++ {
				if pen.At(i, j) != 0 {
					t.Fatalf("penalty[%d,%d] should be zero", i, j)
				}
			}
		}
	}
}
