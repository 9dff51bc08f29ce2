package mcmc

import (
	"context"
	"math"
	"testing"

	"sweffect/domain/effect"
	"sweffect/domain/study"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"
)

func testConfig() Config {
	return Config{
		Chains:      2,
		Iterations:  300,
		Warmup:      100,
		Thin:        1,
		MaxParallel: 2,
		StepSize:    0.05,
		Seed:        1,
	}
}

func testDesign(t *testing.T, fam effect.Family) *estimation.Design {
	t.Helper()
	var records []study.Record
	for u := 1; u <= 6; u++ {
		adoptAt := u + 1
		for p := 1; p <= 7; p++ {
			rec := study.Record{UnitID: u, Period: p}
			outcome := 0.2 * float64(p)
			if p >= adoptAt {
				rec.Treated = 1
				rec.Exposure = p - adoptAt + 1
				outcome -= 0.3 * float64(rec.Exposure)
			}
			rec.Outcome = outcome
			records = append(records, rec)
		}
	}
	ds := &study.Dataset{Records: records, Params: study.DesignParams{TimePoints: 7}}
	design, err := estimation.BuildDesign(ds, fam)
	if err != nil {
		t.Fatalf("BuildDesign failed: %v", err)
	}
	return design
}

func TestFitter_UnconstrainedProducesFiniteFit(t *testing.T) {
	design := testDesign(t, effect.FamilyMCMCSpline)

	raw, err := New(effect.FamilyMCMCSpline, testConfig(), nil).Fit(context.Background(), design)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if raw.Dim() != estimation.FixedBasisWidth {
		t.Fatalf("expected %d coefficients, got %d", estimation.FixedBasisWidth, raw.Dim())
	}
	for k, c := range raw.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			t.Errorf("coefficient %d is not finite: %g", k, c)
		}
		if v := raw.Cov.At(k, k); math.IsNaN(v) || v < 0 {
			t.Errorf("posterior variance %d is %g", k, v)
		}
	}
}

func TestFitter_EncodingKeepsPosteriorNonPositive(t *testing.T) {
	design := testDesign(t, effect.FamilyMCMCStepMonotone)
	enc, err := estimation.NewIncrementEncoding(effect.EnforceGammaPrior, estimation.FixedBasisWidth)
	if err != nil {
		t.Fatalf("encoding construction failed: %v", err)
	}

	raw, err := New(effect.FamilyMCMCStepMonotone, testConfig(), enc).Fit(context.Background(), design)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	// Every draw maps through the encoding, so the posterior mean of each
	// increment is strictly negative.
	for k, c := range raw.Coef {
		if c >= 0 {
			t.Errorf("increment %d: posterior mean %g should be negative", k+1, c)
		}
	}
}

func TestFitter_HardBoundKeepsPosteriorNonPositive(t *testing.T) {
	design := testDesign(t, effect.FamilyMCMCStepMonotoneHard)

	raw, err := NewHardBound(effect.FamilyMCMCStepMonotoneHard, testConfig()).Fit(context.Background(), design)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for k, c := range raw.Coef {
		if c > 0 {
			t.Errorf("increment %d: posterior mean %g violates the bound", k+1, c)
		}
	}
}

func TestFitter_RejectsUndersizedEncoding(t *testing.T) {
	design := testDesign(t, effect.FamilyMCMCStepMonotone)
	enc, err := estimation.NewIncrementEncoding(effect.EnforceGammaPrior, 2)
	if err != nil {
		t.Fatalf("encoding construction failed: %v", err)
	}

	_, err = New(effect.FamilyMCMCStepMonotone, testConfig(), enc).Fit(context.Background(), design)
	if err == nil {
		t.Fatal("undersized encoding should be rejected")
	}
	if errors.GetCode(err) != errors.CodeFittingFailed {
		t.Errorf("expected %s, got %s", errors.CodeFittingFailed, errors.GetCode(err))
	}
}

func TestFitter_HonorsCancelledContext(t *testing.T) {
	design := testDesign(t, effect.FamilyMCMCSpline)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(effect.FamilyMCMCSpline, testConfig(), nil).Fit(ctx, design)
	if err == nil {
		t.Error("cancelled context should abort sampling")
	}
}

func TestFitter_DrawCountHonorsThinning(t *testing.T) {
	cfg := testConfig()
	cfg.Chains = 1
	cfg.Thin = 4
	design := testDesign(t, effect.FamilyMCMCSpline)

	m := newModel(design, nil, false)
	f := New(effect.FamilyMCMCSpline, cfg, nil)
	draws, err := f.runChain(context.Background(), m, cfg.Seed)
	if err != nil {
		t.Fatalf("runChain failed: %v", err)
	}
	// 200 post-warmup iterations thinned by 4.
	if len(draws) != 50 {
		t.Errorf("got %d draws, want 50", len(draws))
	}
	for _, d := range draws {
		if len(d) != estimation.FixedBasisWidth {
			t.Fatalf("draw has %d entries, want %d", len(d), estimation.FixedBasisWidth)
		}
	}
}
