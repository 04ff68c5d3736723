package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/weiihann/lookupbench/stats"
)

var (
	significantStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))
	insignificantStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))
)

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05

// Verdict returns a one-line, styled interpretation of a Welch test of
// range (x) against map (y) at significance level alpha.
func Verdict(r stats.WelchResult, alpha float64) string {
	if r.PTwoTailed >= alpha {
		return insignificantStyle.Render(fmt.Sprintf(
			"no significant difference in mean lookup time (p=%s, alpha=%g)",
			formatP(r.PTwoTailed), alpha,
		))
	}

	faster, p := "range", r.PLeft
	if r.T > 0 {
		faster, p = "map", r.PRight
	}

	return significantStyle.Render(fmt.Sprintf(
		"%s lookups are significantly faster (t=%.3f, df=%.1f, one-tailed p=%s, alpha=%g)",
		faster, r.T, r.DF, formatP(p), alpha,
	))
}
