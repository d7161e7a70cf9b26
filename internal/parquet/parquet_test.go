package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/vertimeter/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSessionRunStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(SessionRun))
	require.NotNil(t, s)

	expectedColumns := []string{
		"run_id",
		"session_id",
		"source",
		"start_time",
		"end_time",
		"run_duration_ms",
		"frames_processed",
		"jump_count",
		"max_height",
		"scale_factor",
		"unit",
		"config_params",
	}

	for _, colName := range expectedColumns {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestJumpEventStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(JumpEvent))
	require.NotNil(t, s)

	for _, colName := range []string{"run_id", "sequence", "take_off_frame", "landing_frame", "flight_time", "height_estimate", "displacement_apex", "unit"} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteSessionRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "session_runs.parquet")

	start := time.Now().Add(-time.Minute).UTC()
	end := start.Add(1500 * time.Millisecond)
	data := []SessionRun{
		{
			RunID:           1,
			SessionID:       "c0ffee",
			Source:          "jump.jsonl",
			StartTime:       start,
			EndTime:         &end,
			RunDurationMs:   ptr(int32(1500)),
			FramesProcessed: 240,
			JumpCount:       3,
			MaxHeight:       ptr(41.5),
			ScaleFactor:     ptr(0.21),
			Unit:            "cm",
			ConfigParams:    ptr(`{"trigger":"both_feet"}`),
		},
		{
			RunID:     2,
			SessionID: "beef",
			StartTime: start,
			Unit:      "m",
			// Still running - nullable fields stay nil
		},
	}
	require.NoError(t, WriteSessionRunsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[SessionRun](file)
	defer reader.Close()

	readData := make([]SessionRun, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	require.Equal(t, len(data), n)

	assert.Equal(t, int32(240), readData[0].FramesProcessed)
	require.NotNil(t, readData[0].MaxHeight)
	assert.Equal(t, 41.5, *readData[0].MaxHeight)
	assert.True(t, end.Equal(*readData[0].EndTime))
	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].ScaleFactor)
	assert.Nil(t, readData[1].ConfigParams)
}

func TestWriteJumpEventsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "events.parquet")
	events := []schema.JumpEvent{
		{Sequence: 1, TakeOffFrame: 10, LandingFrame: 22, TakeOffTime: 0.33, LandingTime: 0.73, FlightTime: 0.4, HeightEstimate: 19.62, Unit: schema.Centimeters},
		{Sequence: 2, TakeOffFrame: 40, LandingFrame: 55, FlightTime: 0.5, HeightEstimate: 30.66, Unit: schema.Centimeters},
	}
	require.NoError(t, WriteJumpEventsParquet(ConvertJumpEvents(7, events), outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[JumpEvent](file)
	defer reader.Close()
	rows := make([]JumpEvent, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)
	assert.Equal(t, int64(7), rows[0].RunID)
	assert.Equal(t, int32(22), rows[0].LandingFrame)
	assert.Equal(t, 30.66, rows[1].HeightEstimate)
	assert.Equal(t, "cm", rows[1].Unit)
}

func TestLandmarksRoundTrip(t *testing.T) {
	ts := 0.5
	frames := []schema.PoseFrame{
		{
			Index: 0, Width: 720, Height: 1280,
			Landmarks: map[schema.LandmarkName]schema.Landmark{
				schema.Nose:      {X: 0.5, Y: 0.1, Visibility: ptr(0.9)},
				schema.LeftAnkle: {X: 0.45, Y: 0.9},
			},
		},
		{
			Index: 15, Timestamp: &ts,
			Landmarks: map[schema.LandmarkName]schema.Landmark{
				schema.RightAnkle: {X: 0.55, Y: 0.8, Visibility: ptr(0.4)},
			},
		},
	}

	rows := FramesToLandmarkRows(frames)
	require.Len(t, rows, 3)
	assert.Equal(t, "left_ankle", rows[0].Landmark, "rows are sorted by landmark name within a frame")

	outputPath := filepath.Join(t.TempDir(), "landmarks.parquet")
	require.NoError(t, WriteLandmarksParquet(rows, outputPath))

	readRows, err := ReadLandmarksParquet(outputPath)
	require.NoError(t, err)
	got := LandmarkRowsToFrames(readRows)
	assert.Equal(t, frames, got)
}

func TestReadLandmarksParquetMissingFile(t *testing.T) {
	_, err := ReadLandmarksParquet(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestConvertRecords(t *testing.T) {
	now := time.Now()
	runs := ConvertSessionRunRecords([]schema.SessionRunRecord{{RunID: 3, SessionID: "s", StartTime: now, JumpCount: 2, Unit: "cm"}})
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].RunID)
	assert.Equal(t, int32(2), runs[0].JumpCount)

	events := ConvertJumpEventRecords([]schema.JumpEventRecord{{RunID: 3, Sequence: 1, HeightEstimate: 12.5, Unit: "cm"}})
	require.Len(t, events, 1)
	assert.Equal(t, 12.5, events[0].HeightEstimate)
}
