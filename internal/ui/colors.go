// Package ui styles terminal output.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style codes for CLI output. They are empty when NO_COLOR is
// set or stderr is not a terminal.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		Disable()
	}
}

// Disable turns every style into a no-op.
func Disable() {
	for _, c := range []*string{&ColorReset, &ColorBold, &ColorDim, &ColorCyan, &ColorGreen, &ColorYellow, &ColorWhite, &ColorRed} {
		*c = ""
	}
}

// Bold renders s in bold.
func Bold(s string) string {
	return ColorBold + s + ColorReset
}

// Success renders s in green.
func Success(s string) string {
	return ColorGreen + s + ColorReset
}

// Info renders s as a dim hint.
func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

// Error renders s in red.
func Error(s string) string {
	return ColorRed + s + ColorReset
}
