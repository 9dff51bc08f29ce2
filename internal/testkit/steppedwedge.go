// Package testkit generates synthetic stepped-wedge datasets with known
// effect curves for tests and local development.
package testkit

import (
	"math/rand"

	"sweffect/domain/study"
)

// SteppedWedgeConfig configures the synthetic rollout generator
type SteppedWedgeConfig struct {
	Units           int       `json:"units"`
	TimePoints      int       `json:"time_points"`
	ExtraTimePoints int       `json:"extra_time_points"`
	Baseline        float64   `json:"baseline"`
	PeriodDrift     float64   `json:"period_drift"`
	EffectCurve     []float64 `json:"effect_curve"` // cumulative effect at exposure 1, 2, ...
	UnitSD          float64   `json:"unit_sd"`
	NoiseSD         float64   `json:"noise_sd"`
	Seed            int64     `json:"seed"`
}

// DefaultSteppedWedgeConfig returns a seven-period design with a saturating
// negative effect curve
func DefaultSteppedWedgeConfig() SteppedWedgeConfig {
	return SteppedWedgeConfig{
		Units:           24,
		TimePoints:      7,
		ExtraTimePoints: 0,
		Baseline:        10,
		PeriodDrift:     0.1,
		EffectCurve:     []float64{-0.5, -0.9, -1.2, -1.4, -1.5, -1.5},
		UnitSD:          0.5,
		NoiseSD:         0.25,
		Seed:            42,
	}
}

// SteppedWedgeGenerator produces staggered-rollout longitudinal data
type SteppedWedgeGenerator struct {
	config SteppedWedgeConfig
	rng    *rand.Rand
}

// NewSteppedWedgeGenerator creates a generator for the given configuration
func NewSteppedWedgeGenerator(config SteppedWedgeConfig) *SteppedWedgeGenerator {
	return &SteppedWedgeGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a complete dataset. Units are split evenly over J-1
// adoption waves; wave w starts treatment at period w+1, so every unit has
// at least one pre-treatment period and exposure runs from 1 upward.
func (g *SteppedWedgeGenerator) Generate() *study.Dataset {
	j := g.config.TimePoints
	totalPeriods := j + g.config.ExtraTimePoints
	waves := j - 1

	records := make([]study.Record, 0, g.config.Units*totalPeriods)
	for u := 0; u < g.config.Units; u++ {
		wave := u%waves + 1
		adoptAt := wave + 1
		unitEffect := g.rng.NormFloat64() * g.config.UnitSD

		for period := 1; period <= totalPeriods; period++ {
			rec := study.Record{UnitID: u + 1, Period: period}
			outcome := g.config.Baseline + g.config.PeriodDrift*float64(period-1) + unitEffect

			if period >= adoptAt {
				rec.Treated = 1
				rec.Exposure = period - adoptAt + 1
				outcome += g.effectAt(rec.Exposure)
			}

			rec.Outcome = outcome + g.rng.NormFloat64()*g.config.NoiseSD
			records = append(records, rec)
		}
	}

	return &study.Dataset{
		Records: records,
		Params: study.DesignParams{
			TimePoints:      j,
			ExtraTimePoints: g.config.ExtraTimePoints,
		},
	}
}

// effectAt returns the cumulative effect at an exposure level, holding the
// curve flat past its last point.
func (g *SteppedWedgeGenerator) effectAt(exposure int) float64 {
	if len(g.config.EffectCurve) == 0 {
		return 0
	}
	if exposure > len(g.config.EffectCurve) {
		return g.config.EffectCurve[len(g.config.EffectCurve)-1]
	}
	return g.config.EffectCurve[exposure-1]
}
