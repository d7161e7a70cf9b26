package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() schema.SessionSummary {
	return schema.SessionSummary{
		SessionID: "session-1",
		Source:    "/tmp/jump.jsonl",
		Params:    schema.DefaultSessionParams(),
		Calibration: &schema.CalibrationResult{
			FrameIndex:   0,
			KnownHeight:  170,
			Unit:         schema.Centimeters,
			AnkleSpread:  40,
			Hypotenuse:   905,
			HeightPixels: 904.1,
			ScaleFactor:  0.188,
		},
		Unit:                  schema.Centimeters,
		MaxHeight:             41.2,
		MaxDisplacementHeight: 41.2,
		MaxFlightTimeHeight:   39.5,
		Events: []schema.JumpEvent{
			{Sequence: 1, TakeOffFrame: 10, TakeOffTime: 0.333, LandingFrame: 27, LandingTime: 0.9, FlightTime: 0.567, HeightEstimate: 39.5, DisplacementApex: 41.2, Unit: schema.Centimeters},
		},
		Peaks: []schema.Peak{
			{Index: 2, FrameIndex: 19, Time: 0.633, Value: 41.2},
		},
		Stats: schema.JumpStats{Count: 1, MeanHeight: 39.5, BestHeight: 39.5, MeanFlightTime: 0.567, BestFlightTime: 0.567},
		Trace: []schema.TracePoint{
			{FrameIndex: 17, Time: 0.567, Height: 30.1, Valid: true, State: schema.Airborne},
			{FrameIndex: 18, Time: 0.6, Valid: false, State: schema.Airborne},
			{FrameIndex: 19, Time: 0.633, Height: 41.2, Valid: true, State: schema.Airborne},
			{FrameIndex: 20, Time: 0.667, Height: 35.0, Valid: true, State: schema.Airborne},
		},
		FramesProcessed: 40,
		FramesSkipped:   1,
	}
}

func TestWriteSessionJSON(t *testing.T) {
	summary := sampleSummary()

	t.Run("drops trace by default", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSessionJSON(&buf, summary, false))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "session-1", got["session_id"])
		assert.NotContains(t, got, "trace")

		events := got["events"].([]any)
		require.Len(t, events, 1)
		event := events[0].(map[string]any)
		assert.Equal(t, 39.5, event["height_estimate"])
		assert.NotEmpty(t, event["label"])
	})

	t.Run("keeps trace when asked", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSessionJSON(&buf, summary, true))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Len(t, got["trace"], 4)
	})
}

func TestWriteSessionCSV(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, intFmt := createFormatters(2)
	require.NoError(t, writeSessionCSV(&buf, sampleSummary(), fmtFloat, intFmt))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "session_id", records[0][0])
	assert.Equal(t, "label", records[0][len(records[0])-1])
	assert.Equal(t, []string{"session-1", "1", "10", "0.33", "27", "0.90", "0.57", "39.50", "41.20", "cm"}, records[1][:10])
}

func TestWriteSessionTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 120, CacheBackend: schema.SQLiteBackend}

	t.Run("with jumps", func(t *testing.T) {
		var buf bytes.Buffer
		fmtFloat, _ := createFormatters(cfg.Precision)
		require.NoError(t, writeSessionTable(&buf, sampleSummary(), cfg, fmtFloat, 50*time.Millisecond))

		out := buf.String()
		assert.Contains(t, out, "Session session-1")
		assert.Contains(t, out, "Calibrated on frame 0")
		assert.Contains(t, out, "39.50")
		assert.Contains(t, out, "41.20")
		assert.Contains(t, out, "Max height: 41.20 cm")
		assert.Contains(t, out, "40 processed, 1 skipped")
		assert.Contains(t, out, "Cache backend: sqlite")
		assert.NotContains(t, out, "cancelled")
	})

	t.Run("uncalibrated and cancelled", func(t *testing.T) {
		summary := schema.SessionSummary{SessionID: "s2", Unit: schema.Centimeters, Cancelled: true, Cached: true}
		var buf bytes.Buffer
		fmtFloat, _ := createFormatters(cfg.Precision)
		require.NoError(t, writeSessionTable(&buf, summary, cfg, fmtFloat, time.Second))

		out := buf.String()
		assert.Contains(t, out, "Not calibrated")
		assert.Contains(t, out, "No jumps detected")
		assert.Contains(t, out, "Session cancelled")
		assert.Contains(t, out, "(cached)")
	})
}

func TestWriteSessionResultsToFile(t *testing.T) {
	dir := t.TempDir()

	for _, mode := range []schema.OutputMode{schema.JSONOut, schema.CSVOut, schema.TextOut, schema.ParquetOut} {
		t.Run(string(mode), func(t *testing.T) {
			out := filepath.Join(dir, "session."+string(mode))
			cfg := &contract.Config{Output: mode, OutputFile: out, Precision: 2, Width: 100}
			require.NoError(t, WriteSessionResults(sampleSummary(), cfg, time.Millisecond))

			info, err := os.Stat(out)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	t.Run("parquet without file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut, Precision: 2}
		err := WriteSessionResults(sampleSummary(), cfg, time.Millisecond)
		assert.ErrorContains(t, err, "--output-file")
	})
}

func TestWritePeaks(t *testing.T) {
	peaks := []schema.Peak{
		{Index: 1, FrameIndex: 1, Time: 0.1, Value: 5},
		{Index: 4, FrameIndex: 4, Time: 0.4, Value: 7.25},
	}
	fmtFloat, intFmt := createFormatters(2)

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writePeaksCSV(&buf, peaks, fmtFloat, intFmt))
		assert.Equal(t, "index,frame,time,value\n1,1,0.10,5.00\n4,4,0.40,7.25\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writePeaksTable(&buf, peaks, "cm", fmtFloat))
		out := strings.ToUpper(buf.String())
		assert.Contains(t, out, "HEIGHT")
		assert.Contains(t, out, "7.25")
	})

	t.Run("json file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "peaks.json")
		cfg := &contract.Config{Output: schema.JSONOut, OutputFile: out, Precision: 2}
		require.NoError(t, WritePeaksResults(PeaksResult{Samples: 6, Unit: "cm", Peaks: peaks}, cfg))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var got PeaksResult
		require.NoError(t, json.Unmarshal(data, &got))
		if diff := cmp.Diff(peaks, got.Peaks); diff != "" {
			t.Errorf("peaks mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("parquet unsupported", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: "x.parquet", Precision: 2}
		assert.Error(t, WritePeaksResults(PeaksResult{}, cfg))
	})
}

func TestWriteCalibration(t *testing.T) {
	result := *sampleSummary().Calibration
	fmtFloat, _ := createFormatters(2)

	rows := calibrationRows(result, fmtFloat)
	assert.Equal(t, []string{"frame", "0"}, rows[0])
	assert.Equal(t, []string{"scale_factor_cm_per_px", "0.188"}, rows[len(rows)-1])

	out := filepath.Join(t.TempDir(), "calibration.csv")
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: out, Precision: 2}
	require.NoError(t, WriteCalibrationResult(result, cfg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "field,value\n"))
	assert.Contains(t, string(data), "known_height_cm,170.00")
}

func TestTraceRoundTrip(t *testing.T) {
	summary := sampleSummary()

	var buf bytes.Buffer
	require.NoError(t, WriteTraceCSV(&buf, summary.Trace, summary.Unit))
	assert.True(t, strings.HasPrefix(buf.String(), "Time (s),Height (cm)\n"))

	data, err := ReadTraceCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "cm", data.Unit)
	assert.True(t, data.HasTime)

	var heights []float64
	for _, p := range data.Points {
		heights = append(heights, p.Height)
	}
	assert.Equal(t, []float64{30.1, 41.2, 35.0}, heights)
}

func TestReadTraceCSV(t *testing.T) {
	t.Run("single column without header", func(t *testing.T) {
		data, err := ReadTraceCSV(strings.NewReader("1\n3\n\n2\n"))
		require.NoError(t, err)
		assert.False(t, data.HasTime)
		assert.Empty(t, data.Unit)
		require.Len(t, data.Points, 3)
		assert.Equal(t, 2, data.Points[2].FrameIndex)
	})

	t.Run("bad value", func(t *testing.T) {
		_, err := ReadTraceCSV(strings.NewReader("Time (s),Height (m)\n0.1,abc\n"))
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("bad time", func(t *testing.T) {
		_, err := ReadTraceCSV(strings.NewReader("x,1\n"))
		assert.ErrorContains(t, err, "invalid time")
	})
}

func TestWriteTraceFile(t *testing.T) {
	assert.Error(t, WriteTraceFile("", nil, schema.Centimeters))

	path := filepath.Join(t.TempDir(), "trace.csv")
	ow := NewOutWriter()
	cfg := &contract.Config{TraceFile: path}
	require.NoError(t, ow.WriteTrace(sampleSummary(), cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}

func TestWriteChart(t *testing.T) {
	dir := t.TempDir()
	summary := sampleSummary()

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "trace.png")
		require.NoError(t, WriteChart(path, summary))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("html", func(t *testing.T) {
		path := filepath.Join(dir, "trace.html")
		ow := NewOutWriter()
		require.NoError(t, ow.WriteChart(summary, &contract.Config{ChartFile: path}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "echarts")
		assert.Contains(t, string(data), "peaks")
	})

	t.Run("empty trace", func(t *testing.T) {
		path := filepath.Join(dir, "empty.png")
		require.NoError(t, WriteChart(path, schema.SessionSummary{Unit: schema.Centimeters}))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		assert.Error(t, WriteChart(filepath.Join(dir, "trace.svgz"), summary))
	})
}

func TestGetMaxSourceWidth(t *testing.T) {
	assert.Equal(t, 15, GetMaxSourceWidth(&contract.Config{Width: 10}))
	assert.Equal(t, 60, GetMaxSourceWidth(&contract.Config{Width: 80}))
	assert.Equal(t, 100, GetMaxSourceWidth(&contract.Config{Width: 500}))
}
