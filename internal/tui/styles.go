package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette
const (
	ColorSaved   = lipgloss.Color("42")  // Green
	ColorEmitted = lipgloss.Color("196") // Red
	ColorMuted   = lipgloss.Color("245")
	ColorHeader  = lipgloss.Color("75")
	ColorPrompt  = lipgloss.Color("252")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(ColorPrompt)
	savedStyle   = lipgloss.NewStyle().Foreground(ColorSaved)
	emittedStyle = lipgloss.NewStyle().Foreground(ColorEmitted)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	totalStyle   = lipgloss.NewStyle().Bold(true)
)

// co2Style picks green for saved (or neutral) and red for emitted CO2
func co2Style(co2 float64) lipgloss.Style {
	if co2 < 0 {
		return emittedStyle
	}
	return savedStyle
}

// RenderTotal formats a running total with its direction
func RenderTotal(total float64) string {
	label := "saved"
	if total < 0 {
		label = "emitted"
	}
	value := total
	if value < 0 {
		value = -value
	}
	return totalStyle.Render("Total: ") +
		co2Style(total).Render(fmt.Sprintf("%.2f kg CO2 net %s", value, label))
}
