package testkit

import (
	"testing"
)

func TestGenerate_ProducesValidDataset(t *testing.T) {
	ds := NewSteppedWedgeGenerator(DefaultSteppedWedgeConfig()).Generate()
	if err := ds.Validate(); err != nil {
		t.Fatalf("generated dataset fails validation: %v", err)
	}

	cfg := DefaultSteppedWedgeConfig()
	if got := len(ds.Records); got != cfg.Units*cfg.TimePoints {
		t.Errorf("got %d records, want %d", got, cfg.Units*cfg.TimePoints)
	}
	if len(ds.Units()) != cfg.Units {
		t.Errorf("got %d units, want %d", len(ds.Units()), cfg.Units)
	}
}

func TestGenerate_StaggersAdoption(t *testing.T) {
	cfg := DefaultSteppedWedgeConfig()
	ds := NewSteppedWedgeGenerator(cfg).Generate()

	// Every exposure level up to J-1 shows up, and nothing beyond it.
	levels := ds.ExposureLevels()
	if len(levels) != cfg.TimePoints-1 {
		t.Fatalf("got %d exposure levels, want %d", len(levels), cfg.TimePoints-1)
	}
	for i, l := range levels {
		if l != i+1 {
			t.Errorf("level %d is %d", i, l)
		}
	}

	// Each unit has at least one pre-treatment period.
	firstTreated := map[int]int{}
	for _, r := range ds.Records {
		if r.Treated == 1 {
			if cur, ok := firstTreated[r.UnitID]; !ok || r.Period < cur {
				firstTreated[r.UnitID] = r.Period
			}
		}
	}
	for unit, p := range firstTreated {
		if p < 2 {
			t.Errorf("unit %d adopts at period %d, want >= 2", unit, p)
		}
	}
}

func TestGenerate_PaddingPeriodsExtendExposure(t *testing.T) {
	cfg := DefaultSteppedWedgeConfig()
	cfg.ExtraTimePoints = 2
	ds := NewSteppedWedgeGenerator(cfg).Generate()
	if err := ds.Validate(); err != nil {
		t.Fatalf("padded dataset fails validation: %v", err)
	}

	maxPeriod := 0
	for _, r := range ds.Records {
		if r.Period > maxPeriod {
			maxPeriod = r.Period
		}
	}
	if maxPeriod != cfg.TimePoints+2 {
		t.Errorf("max period %d, want %d", maxPeriod, cfg.TimePoints+2)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultSteppedWedgeConfig()
	a := NewSteppedWedgeGenerator(cfg).Generate()
	b := NewSteppedWedgeGenerator(cfg).Generate()

	for i := range a.Records {
		if a.Records[i] != b.Records[i] {
			t.Fatalf("record %d differs across identically seeded generators", i)
		}
	}
}

func TestEffectAt_HoldsCurveFlat(t *testing.T) {
	cfg := DefaultSteppedWedgeConfig()
	g := NewSteppedWedgeGenerator(cfg)

	last := cfg.EffectCurve[len(cfg.EffectCurve)-1]
	if got := g.effectAt(len(cfg.EffectCurve) + 3); got != last {
		t.Errorf("effect past the curve end is %g, want %g", got, last)
	}
	if got := g.effectAt(1); got != cfg.EffectCurve[0] {
		t.Errorf("effect at exposure 1 is %g, want %g", got, cfg.EffectCurve[0])
	}
}
