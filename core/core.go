// Package core has core logic for running jump sessions, calibration and peak analysis.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/vertimeter/core/engine"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/landmarks"
	"github.com/huangsam/vertimeter/internal/outwriter"
	"github.com/huangsam/vertimeter/internal/synth"
	"github.com/huangsam/vertimeter/schema"
)

// ExecuteAnalyze runs a full session over the landmark file and prints the results.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	summary, err := GetSessionResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	ow := outwriter.NewOutWriter()
	if err := ow.WriteSession(summary, cfg, duration); err != nil {
		return err
	}
	if cfg.TraceFile != "" {
		if err := ow.WriteTrace(summary, cfg); err != nil {
			return fmt.Errorf("error writing trace: %w", err)
		}
	}
	if cfg.ChartFile != "" {
		if err := ow.WriteChart(summary, cfg); err != nil {
			return fmt.Errorf("error writing chart: %w", err)
		}
		contract.LogInfo("📈 Wrote chart to %s", cfg.ChartFile)
	}
	return nil
}

// ExecuteCalibrate scans the landmark file for the first calibratable frame and prints the result.
func ExecuteCalibrate(ctx context.Context, cfg *contract.Config) error {
	result, err := GetCalibrationResult(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCalibration(result, cfg)
}

// GetCalibrationResult returns the calibration of the first frame that yields a scale factor.
// With the body-in-frame gate enabled, frames are skipped until the body has stayed
// in frame for the configured hold.
func GetCalibrationResult(ctx context.Context, cfg *contract.Config) (schema.CalibrationResult, error) {
	if err := engine.ValidateParams(cfg.Session); err != nil {
		return schema.CalibrationResult{}, err
	}
	src, err := landmarks.Open(cfg.InputPath, cfg.InputFormat)
	if err != nil {
		return schema.CalibrationResult{}, err
	}
	defer func() { _ = src.Close() }()

	geo := engine.GeometryFromParams(cfg.Session)
	gate := engine.NewReadinessGate(cfg.Session)
	scanned := 0
	var lastErr error
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schema.CalibrationResult{}, fmt.Errorf("read frame %d: %w", scanned, err)
		}
		scanned++
		if !gate.Observe(frame) {
			continue
		}
		result, err := engine.Calibrate(frame, cfg.Session.KnownHeight, geo)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if cfg.Verbose {
			contract.LogWarn("Calibration attempt", err)
		}
	}

	if lastErr != nil {
		return schema.CalibrationResult{}, fmt.Errorf("no calibratable frame in %d frames, last failure: %w", scanned, lastErr)
	}
	return schema.CalibrationResult{}, fmt.Errorf("%w: no calibratable frame in %d frames", schema.ErrCalibration, scanned)
}

// ExecutePeaks runs peak analysis over an exported height trace and prints the peaks.
func ExecutePeaks(_ context.Context, cfg *contract.Config) error {
	result, err := GetPeaksResult(cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePeaks(result, cfg)
}

// GetPeaksResult reads the trace CSV named by cfg and finds its peaks.
func GetPeaksResult(cfg *contract.Config) (outwriter.PeaksResult, error) {
	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return outwriter.PeaksResult{}, fmt.Errorf("cannot read trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	trace, err := outwriter.ReadTraceCSV(f)
	if err != nil {
		return outwriter.PeaksResult{}, fmt.Errorf("invalid trace %s: %w", cfg.InputPath, err)
	}
	unit := trace.Unit
	if unit == "" {
		unit = string(cfg.Session.Unit)
	}
	opts := engine.PeakOptions{Tolerance: cfg.Session.PeakTolerance, MergePlateaus: cfg.Session.MergePlateaus}
	return outwriter.PeaksResult{
		Source:  cfg.InputPath,
		Unit:    unit,
		Samples: len(trace.Points),
		Peaks:   engine.TracePeaks(trace.Points, opts),
	}, nil
}

// ExecuteSimulate writes a synthetic landmark stream to outputFile, or JSONL to stdout when empty.
func ExecuteSimulate(_ context.Context, sim synth.Config, outputFile string, format schema.InputFormat) error {
	if err := sim.Validate(); err != nil {
		return err
	}
	frames := synth.Generate(sim)
	if outputFile == "" {
		return landmarks.WriteJSONL(os.Stdout, frames)
	}
	if err := landmarks.WriteFile(outputFile, format, frames); err != nil {
		return err
	}
	contract.LogInfo("💾 Wrote %d frames with %d jumps to %s", len(frames), sim.Jumps, outputFile)
	return nil
}

// SimulateSession generates a synthetic stream and measures it in memory.
func SimulateSession(ctx context.Context, sim synth.Config, params schema.SessionParams) (schema.SessionSummary, error) {
	if err := sim.Validate(); err != nil {
		return schema.SessionSummary{}, err
	}
	session, err := engine.NewSession(params, engine.WithSource("synthetic"))
	if err != nil {
		return schema.SessionSummary{}, err
	}
	return session.Run(ctx, synth.NewSource(sim))
}
