package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))            // dark green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))            // purple
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))           // light grey
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

var StyleSymbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"warning": "!",
	"arrow":   "→",
	"bullet":  "•",
}

// Status lines go to stderr; stdout may be carrying a body.
var Stderr io.Writer = os.Stderr

func PrintSuccess(text string) {
	fmt.Fprintln(Stderr, successStyle.Render(text))
}
func PrintError(text string) {
	fmt.Fprintln(Stderr, errorStyle.Render(text))
}
func PrintWarning(text string) {
	fmt.Fprintln(Stderr, warningStyle.Render(text))
}
func PrintHeader(text string) {
	fmt.Fprintln(Stderr, headerStyle.Render(text))
}
func FSuccess(text string) string {
	return successStyle.Render(text)
}
func FError(text string) string {
	return errorStyle.Render(text)
}
func FDetail(text string) string {
	return detailStyle.Render(text)
}
func FDebug(text string) string {
	return debugStyle.Render(text)
}
