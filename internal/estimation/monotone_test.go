package estimation

import (
	"math"
	"math/rand"
	"testing"

	"sweffect/domain/effect"
	"sweffect/internal/errors"
)

func TestIncrementEncodings_NonPositiveIncrements(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, name := range effect.Enforcements() {
		enc, err := NewIncrementEncoding(name, FixedBasisWidth)
		if err != nil {
			t.Fatalf("%s: encoding construction failed: %v", name, err)
		}
		if enc.Name() != string(name) {
			t.Errorf("%s: encoding reports name %q", name, enc.Name())
		}

		latent := enc.Init(rng)
		if len(latent) != enc.Dim() {
			t.Fatalf("%s: init latent has %d entries, want %d", name, len(latent), enc.Dim())
		}
		if !enc.Support(latent) {
			t.Errorf("%s: init latent falls outside support", name)
		}
		if lp := enc.LogPrior(latent); math.IsNaN(lp) || math.IsInf(lp, 1) {
			t.Errorf("%s: log prior at init is %g", name, lp)
		}

		inc := enc.Increments(latent)
		if len(inc) != FixedBasisWidth {
			t.Fatalf("%s: %d increments, want %d", name, len(inc), FixedBasisWidth)
		}
		for k, v := range inc {
			if v > 0 {
				t.Errorf("%s: increment %d is %g, want <= 0", name, k, v)
			}
		}
	}
}

func TestIncrementEncoding_DefaultsToGammaPrior(t *testing.T) {
	enc, err := NewIncrementEncoding("", FixedBasisWidth)
	if err != nil {
		t.Fatalf("empty enforcement should select the default: %v", err)
	}
	if enc.Name() != string(effect.EnforceGammaPrior) {
		t.Errorf("default encoding is %q, want %q", enc.Name(), effect.EnforceGammaPrior)
	}
}

func TestIncrementEncoding_RejectsUnknownStrategy(t *testing.T) {
	_, err := NewIncrementEncoding("exp_mixture_50", FixedBasisWidth)
	if err == nil {
		t.Fatal("unknown enforcement should be rejected")
	}
	if errors.GetCode(err) != errors.CodeUnsupportedEnforcement {
		t.Errorf("expected %s, got %s", errors.CodeUnsupportedEnforcement, errors.GetCode(err))
	}
}

func TestExpMixtureEncoding_SpikeZeroesIncrement(t *testing.T) {
	enc, err := NewIncrementEncoding(effect.EnforceExpMixture20, 3)
	if err != nil {
		t.Fatalf("encoding construction failed: %v", err)
	}
	if enc.Dim() != 6 {
		t.Fatalf("mixture latent dimension is %d, want 6", enc.Dim())
	}
	flips := enc.FlipIndices()
	if len(flips) != 3 || flips[0] != 0 || flips[1] != 2 || flips[2] != 4 {
		t.Fatalf("flip indices %v, want the spike coordinates [0 2 4]", flips)
	}

	// Spike on the middle increment, slab elsewhere.
	latent := []float64{0, 0.5, 1, 2, 0, -0.3}
	if !enc.Support(latent) {
		t.Fatal("binary spikes should be inside the support")
	}
	inc := enc.Increments(latent)
	if inc[1] != 0 {
		t.Errorf("spiked increment is %g, want exactly 0", inc[1])
	}
	if inc[0] >= 0 || inc[2] >= 0 {
		t.Errorf("slab increments should be strictly negative, got %v", inc)
	}

	// A fractional spike indicator is not admissible.
	if enc.Support([]float64{0.5, 0, 0, 0, 0, 0}) {
		t.Error("fractional spike indicator should fall outside the support")
	}
}

func TestIncrementEncodings_SupportBoundaries(t *testing.T) {
	gamma, _ := NewIncrementEncoding(effect.EnforceGammaPrior, 2)
	if gamma.Support([]float64{1, 0}) {
		t.Error("gamma magnitudes must be strictly positive")
	}

	uniform, _ := NewIncrementEncoding(effect.EnforceUniformPrior, 2)
	if uniform.Support([]float64{-11, -1}) {
		t.Error("uniform latent below the lower bound should be rejected")
	}
	if uniform.Support([]float64{-1, 0}) {
		t.Error("uniform latent at zero should be rejected")
	}
	if !uniform.Support([]float64{-9.9, -0.1}) {
		t.Error("interior uniform latent should be admissible")
	}

	expo, _ := NewIncrementEncoding(effect.EnforceExpExponential, 2)
	if expo.Support([]float64{-0.1, 1}) {
		t.Error("exponential latent must be non-negative")
	}

	normal, _ := NewIncrementEncoding(effect.EnforceExpNormal, 2)
	if !normal.Support([]float64{-100, 100}) {
		t.Error("normal latent support is unbounded")
	}
}
