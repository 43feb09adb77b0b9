package statecharts

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Pipeline tracing, off by default. Diagnostics never go through here: they
// are written by Report.Flush in the file:line:col form.
var logger = log.NewWithOptions(io.Discard, log.Options{
	Prefix:          "statecharts",
	ReportTimestamp: false,
})

// SetVerbose routes debug traces of the pipeline stages to stderr.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.DebugLevel)
		return
	}
	logger.SetOutput(io.Discard)
}
