package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/alexiusacademia/timbertrace/internal/qp"
)

// ConvergenceChart plots log10 of the duality measure per interior point
// iteration. It returns an empty string when there is nothing to plot.
func ConvergenceChart(history []qp.Iteration) string {
	if len(history) < 2 {
		return ""
	}
	series := make([]float64, len(history))
	for i, it := range history {
		series[i] = math.Log10(math.Max(it.Mu, 1e-16))
	}
	return asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(max(len(series), 30)),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("log10(mu) over %d iterations", len(history))),
	)
}

// GapChart plots the contact gaps in contact order, in millimetres.
func GapChart(gaps []float64) string {
	if len(gaps) == 0 {
		return ""
	}
	series := make([]float64, len(gaps))
	for i, g := range gaps {
		series[i] = g * 1000
	}
	if len(series) == 1 {
		series = append(series, series[0])
	}
	return asciigraph.Plot(series,
		asciigraph.Height(6),
		asciigraph.Precision(3),
		asciigraph.Caption("contact gap (mm)"),
	)
}

// DrawSummaryBox creates a summary box for results
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	width := len([]rune(title))
	for _, line := range lines {
		width = max(width, len([]rune(line)))
	}
	width += 4

	border := strings.Repeat("═", width)
	fmt.Fprintf(&sb, "  ╔%s╗\n", border)
	fmt.Fprintf(&sb, "  ║  %-*s  ║\n", width-4, title)
	fmt.Fprintf(&sb, "  ╠%s╣\n", border)
	for _, line := range lines {
		fmt.Fprintf(&sb, "  ║  %-*s  ║\n", width-4, line)
	}
	fmt.Fprintf(&sb, "  ╚%s╝\n", border)

	return sb.String()
}
