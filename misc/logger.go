package misc

import "github.com/BrugadaSyndrome/bslogger"

// NewLogger keeps quiet unless verbose. At Normal verbosity info lines go to os.Stdout, which main
// points at stderr so they stay out of the image.
func NewLogger(name string, verbose bool) bslogger.Logger {
	if verbose {
		return bslogger.NewLogger(name, bslogger.Normal, nil)
	}
	return bslogger.NewLogger(name, bslogger.Minimal, nil)
}
