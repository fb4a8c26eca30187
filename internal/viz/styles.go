package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineChart renders values as one line of block characters, colored
// with the current theme from low to high.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	lo, hi := floats.Min(values), floats.Max(values)
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(len(values)/width, 1)

	high := lipgloss.NewStyle().Foreground(CurrentTheme.SparkHigh)
	mid := lipgloss.NewStyle().Foreground(CurrentTheme.SparkMid)
	low := lipgloss.NewStyle().Foreground(CurrentTheme.SparkLow)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(high.Render(c))
		case norm > 0.3:
			b.WriteString(mid.Render(c))
		default:
			b.WriteString(low.Render(c))
		}
	}
	return b.String()
}
