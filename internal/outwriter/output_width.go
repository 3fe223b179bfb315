package outwriter

import (
	"os"

	"github.com/huangsam/defectset/internal/contract"
	"golang.org/x/term"
)

// Path column bounds for table output.
const (
	minPathWidth = 15
	maxPathWidth = 70
)

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and the fixed dataset columns.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width

	if termWidth <= 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Version + Added + Deleted + Touched + Churn + NR + NFix + NAuth + Buggy with padding,
	// then borders and separators
	baseWidth := 70 + 20

	available := termWidth - baseWidth
	if available < minPathWidth {
		return minPathWidth
	}
	if available > maxPathWidth {
		return maxPathWidth
	}
	return available
}
