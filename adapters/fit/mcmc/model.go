// Package mcmc is the posterior-sampling collaborator for the Bayesian
// families: a random-walk Metropolis sampler over a hierarchical model with
// a unit-level random intercept, flat priors on the intercept and period
// effects, and the family's treatment-basis parameterization.
package mcmc

import (
	"math"
	"math/rand"

	"sweffect/internal/estimation"
)

// State vector layout:
//
//	[ fixed effects | treatment latents | unit effects | logSigma | logTau ]
//
// Fixed effects cover the intercept and period dummies. For constrained
// families the treatment block holds the encoding's latents; otherwise it
// holds the basis coefficients directly.
type model struct {
	design    *estimation.Design
	enc       estimation.IncrementEncoding
	hardBound bool

	fixedCols []int
	latentDim int
	flips     []int
	isFlip    []bool
}

func newModel(design *estimation.Design, enc estimation.IncrementEncoding, hardBound bool) *model {
	_, p := design.X.Dims()
	treat := make(map[int]bool, len(design.TreatCols))
	for _, c := range design.TreatCols {
		treat[c] = true
	}
	fixedCols := make([]int, 0, p-len(design.TreatCols))
	for c := 0; c < p; c++ {
		if !treat[c] {
			fixedCols = append(fixedCols, c)
		}
	}

	latentDim := design.TreatWidth()
	if enc != nil {
		latentDim = enc.Dim()
	}

	m := &model{
		design:    design,
		enc:       enc,
		hardBound: hardBound,
		fixedCols: fixedCols,
		latentDim: latentDim,
	}
	if enc != nil {
		base := len(fixedCols)
		for _, idx := range enc.FlipIndices() {
			m.flips = append(m.flips, base+idx)
		}
	}
	m.isFlip = make([]bool, m.dim())
	for _, idx := range m.flips {
		m.isFlip[idx] = true
	}
	return m
}

func (m *model) dim() int {
	return len(m.fixedCols) + m.latentDim + m.design.UnitCount + 2
}

func (m *model) latentSlice(state []float64) []float64 {
	off := len(m.fixedCols)
	return state[off : off+m.latentDim]
}

func (m *model) unitSlice(state []float64) []float64 {
	off := len(m.fixedCols) + m.latentDim
	return state[off : off+m.design.UnitCount]
}

func (m *model) init(rng *rand.Rand) []float64 {
	state := make([]float64, m.dim())
	if m.enc != nil {
		copy(m.latentSlice(state), m.enc.Init(rng))
	}
	return state
}

func (m *model) support(state []float64) bool {
	latent := m.latentSlice(state)
	if m.enc != nil {
		return m.enc.Support(latent)
	}
	if m.hardBound {
		for _, v := range latent {
			if v > 0 {
				return false
			}
		}
	}
	return true
}

// increments maps the current state to the native basis coefficients
func (m *model) increments(state []float64) []float64 {
	latent := m.latentSlice(state)
	if m.enc != nil {
		return m.enc.Increments(latent)
	}
	out := make([]float64, len(latent))
	copy(out, latent)
	return out
}

func (m *model) logPosterior(state []float64) float64 {
	if !m.support(state) {
		return math.Inf(-1)
	}

	beta := m.increments(state)
	units := m.unitSlice(state)
	logSigma := state[len(state)-2]
	logTau := state[len(state)-1]
	sigma := math.Exp(logSigma)
	tau := math.Exp(logTau)

	n := m.design.Rows()
	x := m.design.X
	lp := 0.0
	for i := 0; i < n; i++ {
		mu := units[m.design.Units[i]]
		for f, c := range m.fixedCols {
			mu += x.At(i, c) * state[f]
		}
		for k, c := range m.design.TreatCols {
			mu += x.At(i, c) * beta[k]
		}
		r := m.design.Y[i] - mu
		lp -= r * r
	}
	lp = lp/(2*sigma*sigma) - float64(n)*logSigma

	for _, b := range units {
		lp -= b * b / (2 * tau * tau)
	}
	lp -= float64(len(units)) * logTau

	if m.enc != nil {
		lp += m.enc.LogPrior(m.latentSlice(state))
	}

	// Weak normal(0,10) priors keep the scale parameters proper.
	lp -= logSigma * logSigma / 200
	lp -= logTau * logTau / 200

	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}
