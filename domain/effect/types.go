package effect

import (
	"fmt"
	"strings"

	"sweffect/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Family identifies one of the interchangeable estimation strategies
type Family string

const (
	// FamilyHH fits a single overall treatment indicator with no
	// exposure-time structure.
	FamilyHH Family = "hh"
	// FamilyETI fits one level indicator per observed exposure time.
	FamilyETI Family = "eti"
	// FamilySS fits a smoothing spline over exposure time with a
	// data-dependent knot count.
	FamilySS Family = "ss"
	// FamilyMCMCSpline samples the six hinge increments of a linear spline.
	FamilyMCMCSpline Family = "mcmc_spline"
	// FamilyMCMCSplineMonotone additionally constrains the hinge increments
	// through a monotonicity encoding.
	FamilyMCMCSplineMonotone Family = "mcmc_spline_monotone"
	// FamilyMCMCStepMonotone samples six step increments constrained through
	// a monotonicity encoding.
	FamilyMCMCStepMonotone Family = "mcmc_step_monotone"
	// FamilyMCMCStepMonotoneHard bounds each step increment at zero on its
	// support instead of reparameterizing.
	FamilyMCMCStepMonotoneHard Family = "mcmc_step_monotone_hard"
	// FamilyStepLaplace fits the step increments by Gaussian approximation.
	FamilyStepLaplace Family = "step_laplace"
	// FamilyStepMonotoneLaplace is the constrained Gaussian-approximation
	// variant.
	FamilyStepMonotoneLaplace Family = "step_monotone_laplace"
)

// Families lists every supported estimator family
func Families() []Family {
	return []Family{
		FamilyHH,
		FamilyETI,
		FamilySS,
		FamilyMCMCSpline,
		FamilyMCMCSplineMonotone,
		FamilyMCMCStepMonotone,
		FamilyMCMCStepMonotoneHard,
		FamilyStepLaplace,
		FamilyStepMonotoneLaplace,
	}
}

// ParseFamily maps a configuration string to a Family
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Families() {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.CodeUnsupportedDesign, fmt.Sprintf("unknown estimator family: %s", s))
}

// BasisKind identifies the covariate parameterization a family fits in
type BasisKind int

const (
	// BasisNone is the single-indicator parameterization (no time structure)
	BasisNone BasisKind = iota
	// BasisLevel is one categorical indicator per observed exposure level
	BasisLevel
	// BasisHinge is the six-term monotone-decreasing linear-spline basis
	BasisHinge
	// BasisStep is the six-term step-indicator basis
	BasisStep
)

// Basis returns the parameterization the family's collaborator fits in
func (f Family) Basis() BasisKind {
	switch f {
	case FamilyHH:
		return BasisNone
	case FamilyETI, FamilySS:
		return BasisLevel
	case FamilyMCMCSpline, FamilyMCMCSplineMonotone:
		return BasisHinge
	default:
		return BasisStep
	}
}

// Monotone reports whether the family constrains the effect curve
func (f Family) Monotone() bool {
	switch f {
	case FamilyMCMCSplineMonotone, FamilyMCMCStepMonotone, FamilyMCMCStepMonotoneHard, FamilyStepMonotoneLaplace:
		return true
	}
	return false
}

// Enforcement identifies a monotonicity-constraint reparameterization
type Enforcement string

const (
	// EnforceGammaPrior negates a gamma-distributed latent magnitude
	EnforceGammaPrior Enforcement = "prior_gamma"
	// EnforceUniformPrior draws increments uniformly on (-10, 0)
	EnforceUniformPrior Enforcement = "prior_uniform"
	// EnforceExpExponential negates the exponential of a shifted
	// exponentially-distributed latent
	EnforceExpExponential Enforcement = "exp_exponential"
	// EnforceExpMixture10 is the spike-and-slab encoding with spike
	// probability 0.1
	EnforceExpMixture10 Enforcement = "exp_mixture_10"
	// EnforceExpMixture20 is the spike-and-slab encoding with spike
	// probability 0.2
	EnforceExpMixture20 Enforcement = "exp_mixture_20"
	// EnforceExpMixture40 is the spike-and-slab encoding with spike
	// probability 0.4
	EnforceExpMixture40 Enforcement = "exp_mixture_40"
	// EnforceExpNormal negates the exponential of a normal(1, sqrt(10))
	// latent
	EnforceExpNormal Enforcement = "exp_normal"
)

// Enforcements lists every supported monotonicity strategy
func Enforcements() []Enforcement {
	return []Enforcement{
		EnforceGammaPrior,
		EnforceUniformPrior,
		EnforceExpExponential,
		EnforceExpMixture10,
		EnforceExpMixture20,
		EnforceExpMixture40,
		EnforceExpNormal,
	}
}

// ParseEnforcement maps a configuration string to an Enforcement
func ParseEnforcement(s string) (Enforcement, error) {
	e := Enforcement(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Enforcements() {
		if e == known {
			return e, nil
		}
	}
	return "", errors.UnsupportedEnforcement(s)
}

// MethodSpec is the full configuration of one estimation call
type MethodSpec struct {
	Family Family `json:"family"`
	// Enforce selects the monotonicity encoding; only meaningful for the
	// reparameterized monotone families. Empty selects the gamma-prior
	// default.
	Enforce Enforcement `json:"enforce,omitempty"`
	// EffectReached is R, the horizon past which the effect curve is assumed
	// flat. Zero means no assumption.
	EffectReached int `json:"effect_reached"`
}

// Validate rejects unknown enumeration values at the entry point
func (m MethodSpec) Validate() error {
	if _, err := ParseFamily(string(m.Family)); err != nil {
		return err
	}
	if m.Enforce != "" {
		if _, err := ParseEnforcement(string(m.Enforce)); err != nil {
			return err
		}
	}
	if m.EffectReached < 0 {
		return errors.InvalidDataset(fmt.Sprintf("effect_reached must be non-negative, got %d", m.EffectReached))
	}
	return nil
}

// RawFit is a fitting collaborator's output in the family's native basis,
// already restricted to the treatment-effect coefficients.
type RawFit struct {
	Coef []float64
	Cov  *mat.SymDense
}

// Dim returns the native basis dimension K
func (r *RawFit) Dim() int {
	return len(r.Coef)
}

// CumulativeEffectCurve is the per-period cumulative treatment effect and its
// covariance, one entry per exposure-time level, common to all families.
type CumulativeEffectCurve struct {
	Theta []float64
	Sigma *mat.SymDense
}

// Len returns the number of exposure-time levels L
func (c *CumulativeEffectCurve) Len() int {
	return len(c.Theta)
}

// EstimationResult holds the two effect estimates with standard errors
type EstimationResult struct {
	ATE   float64 `json:"ate_hat"`
	SEATE float64 `json:"se_ate_hat"`
	LTE   float64 `json:"lte_hat"`
	SELTE float64 `json:"se_lte_hat"`
}
