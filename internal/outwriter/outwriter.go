// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSession prints a session summary using the configured output format.
func (ow *OutWriter) WriteSession(summary schema.SessionSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSessionResults(summary, cfg, duration)
}

// WriteCalibration prints a calibration result using the configured output format.
func (ow *OutWriter) WriteCalibration(result schema.CalibrationResult, cfg *contract.Config) error {
	return WriteCalibrationResult(result, cfg)
}

// WritePeaks prints peak analysis results using the configured output format.
func (ow *OutWriter) WritePeaks(result PeaksResult, cfg *contract.Config) error {
	return WritePeaksResults(result, cfg)
}

// WriteTrace writes the per-frame height trace to the configured trace file.
func (ow *OutWriter) WriteTrace(summary schema.SessionSummary, cfg *contract.Config) error {
	return WriteTraceFile(cfg.TraceFile, summary.Trace, summary.Unit)
}

// WriteChart renders the height trace to the configured chart file.
func (ow *OutWriter) WriteChart(summary schema.SessionSummary, cfg *contract.Config) error {
	return WriteChart(cfg.ChartFile, summary)
}
