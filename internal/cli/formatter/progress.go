package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a bar like [████░░░░]  45%.
// Green from halfway, yellow from a quarter, red below.
func RenderProgress(pct, width int) string {
	pct = clampPercent(pct)
	if width < 2 {
		width = 2
	}

	filled := pct * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return fmt.Sprintf("[%s] %3d%%", progressStyle(pct).Render(bar), pct)
}

// RenderCompactBar is the bar without brackets or percentage, for list rows.
func RenderCompactBar(pct, width int) string {
	pct = clampPercent(pct)
	if width < 2 {
		width = 2
	}
	filled := pct * width / 100
	return progressStyle(pct).Render(strings.Repeat(filledBlock, filled)) +
		StyleDim.Render(strings.Repeat(emptyBlock, width-filled))
}

func clampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func progressStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 50:
		return StyleGreen
	case pct >= 25:
		return StyleYellow
	default:
		return StyleRed
	}
}
