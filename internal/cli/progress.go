package cli

import (
	"fmt"
	"io"

	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/pkg/utils"
)

// NewProgressPrinter returns a progress callback that redraws a single status line on w.
func NewProgressPrinter(w io.Writer) models.ProgressFunc {
	return func(p models.Progress) {
		switch p.Phase {
		case models.PhaseDone:
			fmt.Fprintf(w, "\r\033[K%s\n", p.Message)
		case models.PhaseScanning:
			fmt.Fprintf(w, "\r\033[K[%d/%d] %s", p.Current, p.Total, utils.Truncate(p.Message, 60))
		default:
			fmt.Fprintf(w, "\r\033[K%s", p.Message)
		}
	}
}
