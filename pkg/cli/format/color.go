// Package format provides terminal output helpers for repovault commands.
package format

import (
	"fmt"
	"os"
	"runtime"
)

// Color codes
const (
	Reset      = "\033[0m"
	Bold       = "\033[1m"
	Red        = "\033[31m"
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Blue       = "\033[34m"
	Cyan       = "\033[36m"
	BoldRed    = "\033[1;31m"
	BoldGreen  = "\033[1;32m"
	BoldYellow = "\033[1;33m"
	BoldCyan   = "\033[1;36m"
)

var (
	// useColor determines whether to use color in output
	useColor = true
)

// init determines whether colors should be enabled by default
func init() {
	// Disable colors by default on Windows unless using a terminal that supports them
	if runtime.GOOS == "windows" {
		_, hasAnsicon := os.LookupEnv("ANSICON")
		_, hasWT := os.LookupEnv("WT_SESSION")
		useColor = hasAnsicon || hasWT
	}

	// If REPOVAULT_NO_COLOR or NO_COLOR is set, disable colors
	if _, noColor := os.LookupEnv("REPOVAULT_NO_COLOR"); noColor {
		useColor = false
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		useColor = false
	}

	// If output is not a terminal, disable colors (unless forced)
	if _, forceColor := os.LookupEnv("REPOVAULT_FORCE_COLOR"); !forceColor {
		fileInfo, _ := os.Stdout.Stat()
		if fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) == 0 {
			useColor = false
		}
	}
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	useColor = enable
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return useColor
}

// Colorize adds color to a string if colors are enabled
func Colorize(color, text string) string {
	if useColor {
		return color + text + Reset
	}
	return text
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string {
	return Colorize(BoldGreen, fmt.Sprintf(format, a...))
}

// Error formats a message as an error (red)
func Error(format string, a ...interface{}) string {
	return Colorize(BoldRed, fmt.Sprintf(format, a...))
}

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string {
	return Colorize(BoldYellow, fmt.Sprintf(format, a...))
}

// Info formats a message as informational (cyan)
func Info(format string, a ...interface{}) string {
	return Colorize(Cyan, fmt.Sprintf(format, a...))
}

// Highlight formats a message as highlighted (bold)
func Highlight(format string, a ...interface{}) string {
	return Colorize(Bold, fmt.Sprintf(format, a...))
}
