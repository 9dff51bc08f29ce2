// Package fit resolves estimator families to their fitting collaborators.
package fit

import (
	"fmt"

	"sweffect/adapters/fit/gam"
	"sweffect/adapters/fit/laplace"
	"sweffect/adapters/fit/lmm"
	"sweffect/adapters/fit/mcmc"
	"sweffect/domain/effect"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"
)

// Config carries the collaborator tuning shared across estimation calls
type Config struct {
	Sampler      mcmc.Config
	SplineLambda float64
}

// DefaultConfig returns default collaborator settings
func DefaultConfig() Config {
	return Config{Sampler: mcmc.DefaultConfig(), SplineLambda: 1.0}
}

// NewFitter maps a validated method spec to its collaborator. The family is
// branched on exactly once, here.
func NewFitter(spec effect.MethodSpec, cfg Config) (estimation.ModelFitter, error) {
	switch spec.Family {
	case effect.FamilyHH, effect.FamilyETI:
		return lmm.New(spec.Family), nil

	case effect.FamilySS:
		return gam.New(cfg.SplineLambda), nil

	case effect.FamilyMCMCSpline:
		return mcmc.New(spec.Family, cfg.Sampler, nil), nil

	case effect.FamilyMCMCSplineMonotone, effect.FamilyMCMCStepMonotone:
		enc, err := estimation.NewIncrementEncoding(spec.Enforce, estimation.FixedBasisWidth)
		if err != nil {
			return nil, err
		}
		return mcmc.New(spec.Family, cfg.Sampler, enc), nil

	case effect.FamilyMCMCStepMonotoneHard:
		return mcmc.NewHardBound(spec.Family, cfg.Sampler), nil

	case effect.FamilyStepLaplace:
		return laplace.New(false), nil

	case effect.FamilyStepMonotoneLaplace:
		return laplace.New(true), nil

	default:
		return nil, errors.New(errors.CodeUnsupportedDesign, fmt.Sprintf("unknown estimator family: %s", spec.Family))
	}
}

// Factory adapts the collaborator registry to the engine's factory seam
func Factory(cfg Config) estimation.FitterFactory {
	return func(spec effect.MethodSpec) (estimation.ModelFitter, error) {
		return NewFitter(spec, cfg)
	}
}
