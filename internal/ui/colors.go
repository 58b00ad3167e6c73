// Package ui holds the terminal styling used by the CLI.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style sequences for CLI output. Disable blanks them.
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

// Configure turns styling off when NO_COLOR is set or f is not a terminal
func Configure(f *os.File) {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		Disable()
		return
	}
	if f == nil || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		Disable()
	}
}

// Disable removes all styling from subsequent output
func Disable() {
	ColorReset, ColorBold, ColorDim = "", "", ""
	ColorCyan, ColorGreen, ColorYellow, ColorWhite, ColorRed = "", "", "", "", ""
}

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// State colors a submission state name: green when it succeeded, red when it failed
func State(name string) string {
	switch name {
	case "succeeded":
		return Success(name)
	case "failed":
		return Error(name)
	case "pending":
		return Info(name)
	default:
		return name
	}
}
