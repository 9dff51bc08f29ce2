package mcmc

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"sweffect/domain/effect"
	"sweffect/internal/errors"
	"sweffect/internal/estimation"

	montanastats "github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Config carries the sampler tuning for one fitting call. It replaces any
// process-global tuning state; every call receives its own copy.
type Config struct {
	Chains      int
	Iterations  int
	Warmup      int
	Thin        int
	MaxParallel int
	StepSize    float64
	Seed        int64
}

// DefaultConfig returns conservative sampler settings
func DefaultConfig() Config {
	return Config{
		Chains:      4,
		Iterations:  5000,
		Warmup:      1000,
		Thin:        1,
		MaxParallel: 4,
		StepSize:    0.05,
		Seed:        1,
	}
}

// Fitter samples the posterior of a Bayesian family
type Fitter struct {
	family    effect.Family
	cfg       Config
	enc       estimation.IncrementEncoding
	hardBound bool
}

// New creates a sampler-backed fitter. A nil encoding leaves the treatment
// coefficients unconstrained.
func New(family effect.Family, cfg Config, enc estimation.IncrementEncoding) *Fitter {
	return &Fitter{family: family, cfg: cfg, enc: enc}
}

// NewHardBound creates the variant that enforces monotonicity by bounding
// each coefficient's support at zero instead of reparameterizing.
func NewHardBound(family effect.Family, cfg Config) *Fitter {
	return &Fitter{family: family, cfg: cfg, hardBound: true}
}

// Name returns the collaborator name
func (f *Fitter) Name() string {
	return fmt.Sprintf("mcmc/%s", f.family)
}

// Fit runs the configured chains, pools their post-warmup draws, and reduces
// them to a posterior mean vector and covariance matrix of the treatment
// basis coefficients. Chains run concurrently under a weighted semaphore;
// pooling happens only after every chain has finished.
func (f *Fitter) Fit(ctx context.Context, design *estimation.Design) (*effect.RawFit, error) {
	width := design.TreatWidth()
	if f.enc != nil && f.enc.Dim() < width {
		return nil, errors.FittingFailed(string(f.family),
			fmt.Errorf("encoding %s has latent dimension %d for %d basis terms", f.enc.Name(), f.enc.Dim(), width))
	}

	m := newModel(design, f.enc, f.hardBound)

	chainDraws := make([][][]float64, f.cfg.Chains)
	sem := semaphore.NewWeighted(int64(f.cfg.MaxParallel))
	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < f.cfg.Chains; c++ {
		c := c
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			draws, err := f.runChain(gctx, m, f.cfg.Seed+int64(c))
			if err != nil {
				return err
			}
			chainDraws[c] = draws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.FittingFailed(string(f.family), err)
	}

	var pooled [][]float64
	for _, draws := range chainDraws {
		pooled = append(pooled, draws...)
	}
	if len(pooled) < 2 {
		return nil, errors.FittingFailed(string(f.family), fmt.Errorf("only %d posterior draws after warm-up", len(pooled)))
	}

	coef := make([]float64, width)
	flat := make([]float64, 0, len(pooled)*width)
	for k := 0; k < width; k++ {
		col := make([]float64, len(pooled))
		for i, d := range pooled {
			col[i] = d[k]
		}
		mean, err := montanastats.Mean(col)
		if err != nil {
			return nil, errors.FittingFailed(string(f.family), err)
		}
		coef[k] = mean
	}
	for _, d := range pooled {
		flat = append(flat, d...)
	}

	cov := mat.NewSymDense(width, nil)
	stat.CovarianceMatrix(cov, mat.NewDense(len(pooled), width, flat), nil)

	for k := 0; k < width; k++ {
		if math.IsNaN(coef[k]) || math.IsInf(coef[k], 0) {
			return nil, errors.FittingFailed(string(f.family), fmt.Errorf("posterior mean is not finite"))
		}
	}

	return &effect.RawFit{Coef: coef, Cov: cov}, nil
}

// runChain walks a single Metropolis chain and returns its thinned
// post-warmup draws of the basis coefficients.
func (f *Fitter) runChain(ctx context.Context, m *model, seed int64) ([][]float64, error) {
	rng := rand.New(rand.NewSource(seed))
	state := m.init(rng)
	logp := m.logPosterior(state)
	if math.IsInf(logp, -1) {
		return nil, fmt.Errorf("initial state outside support")
	}

	proposal := make([]float64, len(state))
	var draws [][]float64
	for iter := 0; iter < f.cfg.Iterations; iter++ {
		if iter%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		copy(proposal, state)
		if len(m.flips) > 0 && rng.Float64() < 0.2 {
			idx := m.flips[rng.Intn(len(m.flips))]
			proposal[idx] = 1 - proposal[idx]
		} else {
			for i := range proposal {
				if m.isFlip[i] {
					continue
				}
				proposal[i] += rng.NormFloat64() * f.cfg.StepSize
			}
		}

		logq := m.logPosterior(proposal)
		if logq-logp > math.Log(rng.Float64()) {
			copy(state, proposal)
			logp = logq
		}

		if iter >= f.cfg.Warmup && (iter-f.cfg.Warmup)%f.cfg.Thin == 0 {
			draws = append(draws, m.increments(state))
		}
	}
	return draws, nil
}
