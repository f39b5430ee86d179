package format

import (
	"fmt"

	"github.com/fatih/color"
)

// Status colors used in table cells and summary lines.
var (
	SuccessColor = color.New(color.FgGreen, color.Bold)
	FailureColor = color.New(color.FgRed, color.Bold)
	PendingColor = color.New(color.FgYellow)
	DetailColor  = color.New(color.FgCyan)
)

// StatusLabel renders a per-item outcome label ("ok"/"failed") for result
// listings.
func StatusLabel(ok bool) string {
	if !useColor {
		if ok {
			return "ok"
		}
		return "failed"
	}
	if ok {
		return SuccessColor.Sprint("ok")
	}
	return FailureColor.Sprint("failed")
}

// CountSummary renders a "succeeded/failed out of attempted" line for batch
// operations.
func CountSummary(operation string, attempted, succeeded, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%s complete: %d/%d succeeded", operation, succeeded, attempted)
	}
	return fmt.Sprintf("%s complete: %d/%d succeeded, %d failed", operation, succeeded, attempted, failed)
}

// ByteSize renders a byte count in a human readable unit.
func ByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
