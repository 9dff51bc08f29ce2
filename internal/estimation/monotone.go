package estimation

import (
	"math"
	"math/rand"

	"sweffect/domain/effect"

	"gonum.org/v1/gonum/stat/distuv"
)

// IncrementEncoding maps an unconstrained latent vector sampled by a
// posterior sampler onto non-positive basis increments. Each strategy fixes
// its own latent dimension, prior, and support.
type IncrementEncoding interface {
	Name() string
	// Dim is the latent dimension the sampler walks over.
	Dim() int
	// Init returns a latent vector inside the support.
	Init(rng *rand.Rand) []float64
	// Support reports whether a proposed latent vector is admissible.
	Support(latent []float64) bool
	// Increments maps a latent vector to the non-positive increments.
	Increments(latent []float64) []float64
	// LogPrior evaluates the latent prior density (log scale).
	LogPrior(latent []float64) float64
	// FlipIndices lists latent coordinates with 0/1 support that the sampler
	// must propose by flipping. Empty for fully continuous encodings.
	FlipIndices() []int
}

// NewIncrementEncoding selects the encoding for an enforcement strategy. An
// empty strategy selects the gamma-prior default; unknown names are rejected.
func NewIncrementEncoding(e effect.Enforcement, width int) (IncrementEncoding, error) {
	if e == "" {
		e = effect.EnforceGammaPrior
	}
	switch e {
	case effect.EnforceGammaPrior:
		return &gammaPriorEncoding{width: width, prior: distuv.Gamma{Alpha: 2, Beta: 1}}, nil
	case effect.EnforceUniformPrior:
		return &uniformPriorEncoding{width: width, lower: -10, upper: 0}, nil
	case effect.EnforceExpExponential:
		return &expExponentialEncoding{width: width, shift: 1, prior: distuv.Exponential{Rate: 1}}, nil
	case effect.EnforceExpMixture10:
		return newExpMixtureEncoding(width, 0.1), nil
	case effect.EnforceExpMixture20:
		return newExpMixtureEncoding(width, 0.2), nil
	case effect.EnforceExpMixture40:
		return newExpMixtureEncoding(width, 0.4), nil
	case effect.EnforceExpNormal:
		return &expNormalEncoding{width: width, prior: distuv.Normal{Mu: 1, Sigma: math.Sqrt(10)}}, nil
	default:
		_, err := effect.ParseEnforcement(string(e))
		return nil, err
	}
}

// gammaPriorEncoding: increment = -m with m gamma-distributed, so every
// increment is strictly negative.
type gammaPriorEncoding struct {
	width int
	prior distuv.Gamma
}

func (g *gammaPriorEncoding) Name() string { return string(effect.EnforceGammaPrior) }
func (g *gammaPriorEncoding) Dim() int     { return g.width }

func (g *gammaPriorEncoding) Init(rng *rand.Rand) []float64 {
	latent := make([]float64, g.width)
	for i := range latent {
		latent[i] = 0.5
	}
	return latent
}

func (g *gammaPriorEncoding) Support(latent []float64) bool {
	for _, m := range latent {
		if m <= 0 {
			return false
		}
	}
	return true
}

func (g *gammaPriorEncoding) Increments(latent []float64) []float64 {
	inc := make([]float64, g.width)
	for i, m := range latent {
		inc[i] = -m
	}
	return inc
}

func (g *gammaPriorEncoding) LogPrior(latent []float64) float64 {
	lp := 0.0
	for _, m := range latent {
		lp += g.prior.LogProb(m)
	}
	return lp
}

func (g *gammaPriorEncoding) FlipIndices() []int { return nil }

// uniformPriorEncoding: the increments are the latents, drawn uniformly on
// (-10, 0).
type uniformPriorEncoding struct {
	width        int
	lower, upper float64
}

func (u *uniformPriorEncoding) Name() string { return string(effect.EnforceUniformPrior) }
func (u *uniformPriorEncoding) Dim() int     { return u.width }

func (u *uniformPriorEncoding) Init(rng *rand.Rand) []float64 {
	latent := make([]float64, u.width)
	for i := range latent {
		latent[i] = -0.5
	}
	return latent
}

func (u *uniformPriorEncoding) Support(latent []float64) bool {
	for _, v := range latent {
		if v <= u.lower || v >= u.upper {
			return false
		}
	}
	return true
}

func (u *uniformPriorEncoding) Increments(latent []float64) []float64 {
	inc := make([]float64, u.width)
	copy(inc, latent)
	return inc
}

// LogPrior is constant inside the support
func (u *uniformPriorEncoding) LogPrior(latent []float64) float64 { return 0 }

func (u *uniformPriorEncoding) FlipIndices() []int { return nil }

// expExponentialEncoding: increment = -exp(v - shift) with v exponentially
// distributed.
type expExponentialEncoding struct {
	width int
	shift float64
	prior distuv.Exponential
}

func (e *expExponentialEncoding) Name() string { return string(effect.EnforceExpExponential) }
func (e *expExponentialEncoding) Dim() int     { return e.width }

func (e *expExponentialEncoding) Init(rng *rand.Rand) []float64 {
	latent := make([]float64, e.width)
	for i := range latent {
		latent[i] = 1
	}
	return latent
}

func (e *expExponentialEncoding) Support(latent []float64) bool {
	for _, v := range latent {
		if v < 0 {
			return false
		}
	}
	return true
}

func (e *expExponentialEncoding) Increments(latent []float64) []float64 {
	inc := make([]float64, e.width)
	for i, v := range latent {
		inc[i] = -math.Exp(v - e.shift)
	}
	return inc
}

func (e *expExponentialEncoding) LogPrior(latent []float64) float64 {
	lp := 0.0
	for _, v := range latent {
		lp += e.prior.LogProb(v)
	}
	return lp
}

func (e *expExponentialEncoding) FlipIndices() []int { return nil }

// expMixtureEncoding: spike-and-slab. Latent layout is (z_1, u_1, ..., z_w,
// u_w); increment k is exactly zero when its spike indicator z_k is set and
// -exp(u_k) otherwise.
type expMixtureEncoding struct {
	width int
	p     float64
	slab  distuv.Normal
}

func newExpMixtureEncoding(width int, p float64) *expMixtureEncoding {
	return &expMixtureEncoding{width: width, p: p, slab: distuv.Normal{Mu: 0, Sigma: 1}}
}

func (m *expMixtureEncoding) Name() string {
	switch m.p {
	case 0.1:
		return string(effect.EnforceExpMixture10)
	case 0.2:
		return string(effect.EnforceExpMixture20)
	default:
		return string(effect.EnforceExpMixture40)
	}
}

func (m *expMixtureEncoding) Dim() int { return 2 * m.width }

func (m *expMixtureEncoding) Init(rng *rand.Rand) []float64 {
	latent := make([]float64, 2*m.width)
	for k := 0; k < m.width; k++ {
		latent[2*k] = 0 // slab by default
		latent[2*k+1] = 0
	}
	return latent
}

func (m *expMixtureEncoding) Support(latent []float64) bool {
	for k := 0; k < m.width; k++ {
		z := latent[2*k]
		if z != 0 && z != 1 {
			return false
		}
	}
	return true
}

func (m *expMixtureEncoding) Increments(latent []float64) []float64 {
	inc := make([]float64, m.width)
	for k := 0; k < m.width; k++ {
		if latent[2*k] == 1 {
			inc[k] = 0
			continue
		}
		inc[k] = -math.Exp(latent[2*k+1])
	}
	return inc
}

func (m *expMixtureEncoding) LogPrior(latent []float64) float64 {
	lp := 0.0
	for k := 0; k < m.width; k++ {
		if latent[2*k] == 1 {
			lp += math.Log(m.p)
		} else {
			lp += math.Log(1 - m.p)
		}
		lp += m.slab.LogProb(latent[2*k+1])
	}
	return lp
}

func (m *expMixtureEncoding) FlipIndices() []int {
	idx := make([]int, m.width)
	for k := 0; k < m.width; k++ {
		idx[k] = 2 * k
	}
	return idx
}

// expNormalEncoding: increment = -exp(u) with u normal(1, sqrt(10)).
type expNormalEncoding struct {
	width int
	prior distuv.Normal
}

func (e *expNormalEncoding) Name() string { return string(effect.EnforceExpNormal) }
func (e *expNormalEncoding) Dim() int     { return e.width }

func (e *expNormalEncoding) Init(rng *rand.Rand) []float64 {
	return make([]float64, e.width)
}

func (e *expNormalEncoding) Support(latent []float64) bool { return true }

func (e *expNormalEncoding) Increments(latent []float64) []float64 {
	inc := make([]float64, e.width)
	for i, u := range latent {
		inc[i] = -math.Exp(u)
	}
	return inc
}

func (e *expNormalEncoding) LogPrior(latent []float64) float64 {
	lp := 0.0
	for _, u := range latent {
		lp += e.prior.LogProb(u)
	}
	return lp
}

func (e *expNormalEncoding) FlipIndices() []int { return nil }
