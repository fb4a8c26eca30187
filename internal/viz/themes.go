package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view. Ground is the braille top view; the spark
// colors band the ZMP sparkline from its lowest to its highest third.
type Theme struct {
	Name    string
	Ground  lipgloss.Color
	Title   lipgloss.Color
	Walking lipgloss.Color
	Paused  lipgloss.Color
	Failed  lipgloss.Color

	SparkLow, SparkMid, SparkHigh lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:      "night",
		Ground:    lipgloss.Color("#8be9fd"),
		Title:     lipgloss.Color("#bd93f9"),
		Walking:   lipgloss.Color("#50fa7b"),
		Paused:    lipgloss.Color("#ffb86c"),
		Failed:    lipgloss.Color("#ff5555"),
		SparkLow:  lipgloss.Color("#6272a4"),
		SparkMid:  lipgloss.Color("#f1fa8c"),
		SparkHigh: lipgloss.Color("#ff79c6"),
	}

	ThemePhosphor = Theme{
		Name:      "phosphor",
		Ground:    lipgloss.Color("#33ff33"),
		Title:     lipgloss.Color("#00cc00"),
		Walking:   lipgloss.Color("#88ff88"),
		Paused:    lipgloss.Color("#ffff00"),
		Failed:    lipgloss.Color("#ff3333"),
		SparkLow:  lipgloss.Color("#005500"),
		SparkMid:  lipgloss.Color("#00aa00"),
		SparkHigh: lipgloss.Color("#88ff88"),
	}

	ThemePaper = Theme{
		Name:      "paper",
		Ground:    lipgloss.Color("#e0e0e0"),
		Title:     lipgloss.Color("#ffffff"),
		Walking:   lipgloss.Color("#4caf50"),
		Paused:    lipgloss.Color("#ffa000"),
		Failed:    lipgloss.Color("#e53935"),
		SparkLow:  lipgloss.Color("#607d8b"),
		SparkMid:  lipgloss.Color("#90a4ae"),
		SparkHigh: lipgloss.Color("#0088ff"),
	}

	CurrentTheme = ThemeNight

	Themes = []Theme{ThemeNight, ThemePhosphor, ThemePaper}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}
