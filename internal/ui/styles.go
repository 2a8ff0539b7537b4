// Package ui styles terminal output of the signproxy CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess = lipgloss.Color("35")  // Green
	ColorError   = lipgloss.Color("196") // Red
	ColorDim     = lipgloss.Color("241") // Gray
	ColorAccent  = lipgloss.Color("39")  // Blue
)

const (
	SymbolBullet = "●"
	SymbolCheck  = "✓"
	SymbolCross  = "✗"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)
)

// Field renders "label: value" with the label padded to width.
func Field(label, value string, width int) string {
	pad := width - len(label)
	if pad < 0 {
		pad = 0
	}
	return LabelStyle.Render(label+":") + strings.Repeat(" ", pad+1) + ValueStyle.Render(value)
}

// Success renders a check-marked line.
func Success(format string, args ...any) string {
	return SuccessStyle.Render(SymbolCheck + " " + fmt.Sprintf(format, args...))
}

// Failure renders a cross-marked line.
func Failure(format string, args ...any) string {
	return ErrorStyle.Render(SymbolCross + " " + fmt.Sprintf(format, args...))
}

// Item renders a numbered list entry.
func Item(i int, value string) string {
	return fmt.Sprintf("%s %d. %s", LabelStyle.Render(SymbolBullet), i, ValueStyle.Render(value))
}
