package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	// Detect if we're in a terminal
	isTerminal   = isatty.IsTerminal(os.Stdout.Fd())
	colorEnabled = true

	successStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	warningStyle      lipgloss.Style
	dimStyle          lipgloss.Style
	unconfiguredStyle lipgloss.Style
	headerStyle       lipgloss.Style
)

func init() {
	initStyles()
}

// DisableColors disables all color output
func DisableColors() {
	colorEnabled = false
	isTerminal = false
	initStyles()
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	return isTerminal && colorEnabled
}

func initStyles() {
	if !IsTerminal() {
		successStyle = lipgloss.NewStyle()
		errorStyle = lipgloss.NewStyle()
		warningStyle = lipgloss.NewStyle()
		dimStyle = lipgloss.NewStyle()
		unconfiguredStyle = lipgloss.NewStyle()
		headerStyle = lipgloss.NewStyle()
		return
	}

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unconfiguredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	headerStyle = lipgloss.NewStyle().Bold(true)
}

func Success(text string) string { return successStyle.Render(text) }
func Error(text string) string   { return errorStyle.Render(text) }
func Warning(text string) string { return warningStyle.Render(text) }
func Dim(text string) string     { return dimStyle.Render(text) }

// SuccessMsg prints a success message
func SuccessMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Success("✓")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints an error message
func ErrorMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Error("✗")+" "+fmt.Sprintf(format, args...))
}

// WarningMsg prints a warning message
func WarningMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Warning("⚠")+" "+fmt.Sprintf(format, args...))
}
