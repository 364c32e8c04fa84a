package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Width(11)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	kindColors = map[string]*color.Color{
		"Step":        color.New(color.FgBlue),
		"Call":        color.New(color.FgGreen, color.Bold),
		"Return":      color.New(color.FgGreen),
		"Value":       color.New(color.FgCyan),
		"Event":       color.New(color.FgYellow),
		"ThreadStart": color.New(color.FgMagenta),
		"ThreadExit":  color.New(color.FgMagenta),
	}
	okColor  = color.New(color.FgGreen, color.Bold)
	errColor = color.New(color.FgRed, color.Bold)
)

// render applies s unless colors are disabled.
func render(s lipgloss.Style, text string) string {
	if color.NoColor {
		return text
	}
	return s.Render(text)
}

// label renders a fixed-width field name.
func label(text string) string {
	if color.NoColor {
		return runewidth.FillRight(text, 11)
	}
	return labelStyle.Render(text)
}

func kindText(kind string) string {
	if c, ok := kindColors[kind]; ok {
		return c.Sprint(runewidth.FillRight(kind, 11))
	}
	return runewidth.FillRight(kind, 11)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
