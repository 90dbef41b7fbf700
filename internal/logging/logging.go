// Package logging provides the console logger.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a leveled console logger writing to stderr, so diagnostic
// output never mixes with listings on stdout. Unknown level strings fall
// back to info.
func New(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: false,
		Prefix:          "nullus",
	})
}
