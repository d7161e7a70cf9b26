package outwriter

import (
	"os"

	"github.com/huangsam/vertimeter/internal/contract"
	"golang.org/x/term"
)

// GetMaxSourceWidth calculates the maximum width for the source path in the summary
// header based on terminal width.
func GetMaxSourceWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the "Source:" label and padding
	available := termWidth - 20
	if available < 15 {
		return 15
	}
	if available > 100 {
		return 100
	}
	return available
}
