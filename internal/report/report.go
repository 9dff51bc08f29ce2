// Package report renders estimation runs as human-readable summaries.
package report

import (
	"fmt"
	"strings"

	"sweffect/domain/effect"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// BuildMarkdown produces a markdown summary of an estimation run
func BuildMarkdown(est *effect.Estimate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Treatment-effect estimate %s\n\n", est.ID))
	b.WriteString(fmt.Sprintf("- **Family**: `%s`\n", est.Spec.Family))
	if est.Spec.Enforce != "" {
		b.WriteString(fmt.Sprintf("- **Monotonicity strategy**: `%s`\n", est.Spec.Enforce))
	}
	if est.Spec.EffectReached > 0 {
		b.WriteString(fmt.Sprintf("- **Effect-reached horizon**: %d periods\n", est.Spec.EffectReached))
	} else {
		b.WriteString("- **Effect-reached horizon**: none assumed\n")
	}
	b.WriteString(fmt.Sprintf("- **Computed**: %s\n\n", est.CreatedAt.Time().Format("2006-01-02 15:04:05 MST")))

	b.WriteString("| Quantity | Estimate | Std. error |\n")
	b.WriteString("|---|---|---|\n")
	b.WriteString(fmt.Sprintf("| Average treatment effect | %.6g | %.6g |\n", est.Result.ATE, est.Result.SEATE))
	b.WriteString(fmt.Sprintf("| Long-term effect | %.6g | %.6g |\n", est.Result.LTE, est.Result.SELTE))

	return b.String()
}

// RenderHTML converts a markdown report to an HTML document fragment
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
