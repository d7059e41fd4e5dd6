// Package cli implements the zarrlens command-line interface.
//
// The commands resolve Zarr and OME-Zarr datasets, print their metadata,
// synthesize Neuroglancer states and serve the same over HTTP. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - inspect: Resolve a dataset and summarize its metadata
//   - state: Print the Neuroglancer state or link of a dataset
//   - classify: Decide between image and segmentation layers
//   - browse: Walk a folder of datasets interactively
//   - serve: Run the HTTP API
//   - cache: Manage the metadata and thumbnail cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Resolved ome_zarr (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
