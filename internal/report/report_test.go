package report

import (
	"strings"
	"testing"

	"sweffect/domain/effect"
)

func TestBuildMarkdown(t *testing.T) {
	est := effect.NewEstimate(
		effect.MethodSpec{Family: effect.FamilyETI, EffectReached: 3},
		effect.EstimationResult{ATE: -1.25, SEATE: 0.31, LTE: -1.5, SELTE: 0.4},
	)

	md := BuildMarkdown(est)
	for _, want := range []string{
		string(est.ID),
		"`eti`",
		"3 periods",
		"-1.25",
		"0.31",
		"-1.5",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Monotonicity strategy") {
		t.Error("enforcement line should be omitted when empty")
	}
}

func TestBuildMarkdown_NoHorizon(t *testing.T) {
	est := effect.NewEstimate(
		effect.MethodSpec{Family: effect.FamilyMCMCStepMonotone, Enforce: effect.EnforceExpMixture20},
		effect.EstimationResult{},
	)

	md := BuildMarkdown(est)
	if !strings.Contains(md, "none assumed") {
		t.Error("missing horizon line")
	}
	if !strings.Contains(md, "`exp_mixture_20`") {
		t.Error("missing enforcement line")
	}
}

func TestRenderHTML(t *testing.T) {
	est := effect.NewEstimate(
		effect.MethodSpec{Family: effect.FamilyHH},
		effect.EstimationResult{ATE: -0.8, SEATE: 0.2, LTE: -0.8, SELTE: 0.2},
	)

	out := string(RenderHTML(BuildMarkdown(est)))
	if !strings.Contains(out, "<h1") {
		t.Error("heading not rendered")
	}
	if !strings.Contains(out, "<table>") {
		t.Error("results table not rendered")
	}
}
