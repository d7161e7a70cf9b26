// Package parquet provides data structures and functions for exchanging vertimeter
// data as Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/huangsam/vertimeter/schema"
	"github.com/parquet-go/parquet-go"
)

// SessionRun represents a single measurement session with metadata.
// This struct maps to the vertimeter_session_runs database table.
type SessionRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// SessionID is the engine generated session UUID
	SessionID string `parquet:"session_id,snappy"`

	// Source is the landmark file the session was computed from
	Source string `parquet:"source,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// FramesProcessed is the number of frames fed to the engine
	FramesProcessed int32 `parquet:"frames_processed,snappy"`

	// JumpCount is the number of completed jump events
	JumpCount int32 `parquet:"jump_count,snappy"`

	// MaxHeight is the running maximum height at the end of the session (nullable)
	MaxHeight *float64 `parquet:"max_height,optional,snappy"`

	// ScaleFactor is the calibrated unit per pixel ratio (nullable when calibration never succeeded)
	ScaleFactor *float64 `parquet:"scale_factor,optional,snappy"`

	// Unit is the length unit of every height in the run
	Unit string `parquet:"unit,snappy"`

	// ConfigParams contains the JSON-encoded session parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// JumpEvent represents one completed jump.
// This struct maps to the vertimeter_jump_events database table.
type JumpEvent struct {
	RunID            int64   `parquet:"run_id,snappy"`
	Sequence         int32   `parquet:"sequence,snappy"`
	TakeOffFrame     int32   `parquet:"take_off_frame,snappy"`
	LandingFrame     int32   `parquet:"landing_frame,snappy"`
	TakeOffTime      float64 `parquet:"take_off_time,snappy"`
	LandingTime      float64 `parquet:"landing_time,snappy"`
	FlightTime       float64 `parquet:"flight_time,snappy"`
	HeightEstimate   float64 `parquet:"height_estimate,snappy"`
	DisplacementApex float64 `parquet:"displacement_apex,snappy"`
	Unit             string  `parquet:"unit,snappy"`
}

// LandmarkRow is one landmark of one frame in long format.
type LandmarkRow struct {
	Frame      int64    `parquet:"frame,snappy"`
	Timestamp  *float64 `parquet:"timestamp,optional,snappy"`
	Width      int32    `parquet:"width,snappy"`
	Height     int32    `parquet:"height,snappy"`
	Landmark   string   `parquet:"landmark,snappy,dict"`
	X          float64  `parquet:"x,snappy"`
	Y          float64  `parquet:"y,snappy"`
	Visibility *float64 `parquet:"visibility,optional,snappy"`
}

// writeParquet writes rows to a new Parquet file at outputPath.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteSessionRunsParquet writes a slice of SessionRun structs to a Parquet file.
func WriteSessionRunsParquet(data []SessionRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteJumpEventsParquet writes a slice of JumpEvent structs to a Parquet file.
func WriteJumpEventsParquet(data []JumpEvent, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteLandmarksParquet writes landmark rows to a Parquet file.
func WriteLandmarksParquet(data []LandmarkRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ReadLandmarksParquet reads every landmark row of a Parquet file.
func ReadLandmarksParquet(inputPath string) ([]LandmarkRow, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[LandmarkRow](file)
	defer func() { _ = reader.Close() }()

	rows := make([]LandmarkRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}

// ConvertSessionRunRecords converts schema.SessionRunRecord to SessionRun for Parquet export.
func ConvertSessionRunRecords(records []schema.SessionRunRecord) []SessionRun {
	result := make([]SessionRun, len(records))
	for i, record := range records {
		result[i] = SessionRun{
			RunID:           record.RunID,
			SessionID:       record.SessionID,
			Source:          record.Source,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			RunDurationMs:   record.RunDurationMs,
			FramesProcessed: record.FramesProcessed,
			JumpCount:       record.JumpCount,
			MaxHeight:       record.MaxHeight,
			ScaleFactor:     record.ScaleFactor,
			Unit:            record.Unit,
			ConfigParams:    record.ConfigParams,
		}
	}
	return result
}

// ConvertJumpEventRecords converts schema.JumpEventRecord to JumpEvent for Parquet export.
func ConvertJumpEventRecords(records []schema.JumpEventRecord) []JumpEvent {
	result := make([]JumpEvent, len(records))
	for i, record := range records {
		result[i] = JumpEvent{
			RunID:            record.RunID,
			Sequence:         record.Sequence,
			TakeOffFrame:     record.TakeOffFrame,
			LandingFrame:     record.LandingFrame,
			TakeOffTime:      record.TakeOffTime,
			LandingTime:      record.LandingTime,
			FlightTime:       record.FlightTime,
			HeightEstimate:   record.HeightEstimate,
			DisplacementApex: record.DisplacementApex,
			Unit:             record.Unit,
		}
	}
	return result
}

// ConvertJumpEvents converts engine events to Parquet rows. runID is 0 for events never persisted.
func ConvertJumpEvents(runID int64, events []schema.JumpEvent) []JumpEvent {
	result := make([]JumpEvent, len(events))
	for i, e := range events {
		result[i] = JumpEvent{
			RunID:            runID,
			Sequence:         int32(e.Sequence),
			TakeOffFrame:     int32(e.TakeOffFrame),
			LandingFrame:     int32(e.LandingFrame),
			TakeOffTime:      e.TakeOffTime,
			LandingTime:      e.LandingTime,
			FlightTime:       e.FlightTime,
			HeightEstimate:   e.HeightEstimate,
			DisplacementApex: e.DisplacementApex,
			Unit:             string(e.Unit),
		}
	}
	return result
}

// FramesToLandmarkRows flattens frames into long format rows, one per landmark.
func FramesToLandmarkRows(frames []schema.PoseFrame) []LandmarkRow {
	var rows []LandmarkRow
	for _, f := range frames {
		names := make([]string, 0, len(f.Landmarks))
		for name := range f.Landmarks {
			names = append(names, string(name))
		}
		sort.Strings(names)
		for _, name := range names {
			l := f.Landmarks[schema.LandmarkName(name)]
			rows = append(rows, LandmarkRow{
				Frame:      int64(f.Index),
				Timestamp:  f.Timestamp,
				Width:      int32(f.Width),
				Height:     int32(f.Height),
				Landmark:   name,
				X:          l.X,
				Y:          l.Y,
				Visibility: l.Visibility,
			})
		}
	}
	return rows
}

// LandmarkRowsToFrames groups consecutive rows that share a frame number back into frames.
func LandmarkRowsToFrames(rows []LandmarkRow) []schema.PoseFrame {
	var frames []schema.PoseFrame
	for _, r := range rows {
		if len(frames) == 0 || int64(frames[len(frames)-1].Index) != r.Frame {
			frames = append(frames, schema.PoseFrame{
				Index:     int(r.Frame),
				Timestamp: r.Timestamp,
				Width:     int(r.Width),
				Height:    int(r.Height),
				Landmarks: make(map[schema.LandmarkName]schema.Landmark),
			})
		}
		frames[len(frames)-1].Landmarks[schema.LandmarkName(r.Landmark)] = schema.Landmark{
			X:          r.X,
			Y:          r.Y,
			Visibility: r.Visibility,
		}
	}
	return frames
}
