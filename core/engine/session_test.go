package engine

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/huangsam/vertimeter/internal/synth"
	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays frames and then fails with err, or io.EOF when err is nil.
type sliceSource struct {
	frames []schema.PoseFrame
	err    error
	pos    int
}

func (s *sliceSource) Next(context.Context) (schema.PoseFrame, error) {
	if s.pos >= len(s.frames) {
		if s.err != nil {
			return schema.PoseFrame{}, s.err
		}
		return schema.PoseFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func TestNewSessionRejectsInvalidParams(t *testing.T) {
	p := schema.DefaultSessionParams()
	p.FrameRate = 0
	_, err := NewSession(p)
	assert.ErrorIs(t, err, schema.ErrInvalidParams)
}

func TestSessionSyntheticJumps(t *testing.T) {
	cfg := synth.DefaultConfig()
	var jumped []schema.JumpEvent
	s, err := NewSession(schema.DefaultSessionParams(),
		WithSessionID("test-session"),
		WithSource("synthetic"),
		WithJumpHandler(func(e schema.JumpEvent) { jumped = append(jumped, e) }),
	)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), synth.NewSource(cfg))
	require.NoError(t, err)

	assert.Equal(t, "test-session", summary.SessionID)
	assert.Equal(t, "synthetic", summary.Source)
	assert.False(t, summary.Cancelled)
	require.NotNil(t, summary.Calibration)
	assert.Equal(t, 0, summary.Calibration.FrameIndex)

	require.Len(t, summary.Events, cfg.Jumps)
	assert.Equal(t, summary.Events, jumped)

	n := cfg.FlightFrames()
	for i, e := range summary.Events {
		assert.Equal(t, i+1, e.Sequence)
		// Take-off is detected on the second airborne frame and landing on the first grounded one
		start := cfg.LeadIn + i*(n-1+cfg.LeadIn)
		assert.Equal(t, start+1, e.TakeOffFrame)
		assert.Equal(t, start+n-1, e.LandingFrame)
		assert.InDelta(t, float64(n-2)/cfg.FrameRate, e.FlightTime, 1e-9)
		assert.InDelta(t, FlightTimeHeight(e.FlightTime)*100, e.HeightEstimate, 1e-9)
		assert.Greater(t, e.DisplacementApex, 0.0)
	}

	// One displacement peak per jump, at the apex frame
	require.Len(t, summary.Peaks, cfg.Jumps)
	for i, p := range summary.Peaks {
		start := cfg.LeadIn + i*(n-1+cfg.LeadIn)
		assert.Equal(t, start+n/2-1, p.FrameIndex)
		assert.InDelta(t, summary.Events[i].DisplacementApex, p.Value, 1e-9)
	}

	assert.Equal(t, len(summary.Trace), summary.FramesProcessed)
	assert.Zero(t, summary.FramesSkipped)
	assert.Zero(t, summary.CalibrationFailures)
	assert.Equal(t, cfg.Jumps, summary.Stats.Count)
	assert.GreaterOrEqual(t, summary.MaxHeight, summary.MaxFlightTimeHeight)
	assert.GreaterOrEqual(t, summary.MaxHeight, summary.MaxDisplacementHeight)
	assert.False(t, summary.Trace[0].Valid, "the baseline frame has no displacement")
	assert.True(t, summary.Trace[1].Valid)
}

func TestSessionMaxHeightIsMonotonic(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Jitter = 0.004
	cfg.Jumps = 4

	s, err := NewSession(schema.DefaultSessionParams())
	require.NoError(t, err)

	prev := s.MaxHeight()
	for _, f := range synth.Generate(cfg) {
		_ = s.ProcessFrame(f)
		require.GreaterOrEqual(t, s.MaxHeight(), prev)
		prev = s.MaxHeight()
	}
	assert.Greater(t, prev, 0.0)
}

func TestSessionSkipsNonFiniteLandmarks(t *testing.T) {
	frames := synth.Generate(synth.DefaultConfig())
	bad := frames[20]
	l := bad.Landmarks[schema.LeftShoulder]
	l.Y = math.NaN()
	bad.Landmarks[schema.LeftShoulder] = l
	a := bad.Landmarks[schema.RightAnkle]
	a.Y = math.Inf(1)
	bad.Landmarks[schema.RightAnkle] = a

	var notes []error
	s, err := NewSession(schema.DefaultSessionParams(), WithNotifier(func(err error) { notes = append(notes, err) }))
	require.NoError(t, err)

	prev := s.MaxHeight()
	for _, f := range frames {
		_ = s.ProcessFrame(f)
		require.False(t, math.IsNaN(s.MaxHeight()), "frame %d", f.Index)
		require.GreaterOrEqual(t, s.MaxHeight(), prev)
		prev = s.MaxHeight()
	}

	summary := s.Summary(false)
	assert.Len(t, summary.Events, 3)
	assert.False(t, math.IsNaN(summary.MaxHeight))
	assert.False(t, summary.Trace[20].Valid)
	for _, p := range summary.Trace {
		assert.False(t, math.IsNaN(p.Height), "frame %d", p.FrameIndex)
	}
	var missing *schema.MissingLandmarkError
	require.NotEmpty(t, notes)
	assert.ErrorAs(t, errors.Join(notes...), &missing)
}

func TestSessionDefersCalibration(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.5, 0.5, 0.4, 0.5)
	delete(frames[0].Landmarks, schema.Nose)
	delete(frames[0].Landmarks, schema.LeftShoulder)

	var notes []error
	s, err := NewSession(testParams(), WithNotifier(func(err error) { notes = append(notes, err) }))
	require.NoError(t, err)

	err = s.ProcessFrame(frames[0])
	assert.ErrorIs(t, err, schema.ErrCalibration)
	assert.ErrorIs(t, err, schema.ErrMissingLandmark)
	_, ok := s.Calibration()
	assert.False(t, ok)

	for _, f := range frames[1:] {
		_ = s.ProcessFrame(f)
	}
	cal, ok := s.Calibration()
	require.True(t, ok)
	assert.Equal(t, 1, cal.FrameIndex)

	summary := s.Summary(false)
	assert.Equal(t, 1, summary.CalibrationFailures)
	assert.Equal(t, 1, summary.FramesSkipped)
	require.Len(t, notes, 2)
	require.Len(t, summary.Events, 1)
	assert.Equal(t, 3, summary.Events[0].TakeOffFrame)
}

func TestSessionBodyInFrameGate(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.5, 0.5)
	for name, l := range frames[0].Landmarks {
		l.Visibility = vis(0.6)
		frames[0].Landmarks[name] = l
	}

	params := testParams()
	params.RequireBodyInFrame = true
	params.BodyInFrameHold = 0
	s, err := NewSession(params)
	require.NoError(t, err)
	for _, f := range frames {
		_ = s.ProcessFrame(f)
	}

	cal, ok := s.Calibration()
	require.True(t, ok)
	assert.Equal(t, 1, cal.FrameIndex)
	assert.Equal(t, 1, s.Summary(false).FramesSkipped)
}

func TestSessionBodyInFrameHoldRestarts(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5)
	l := frames[2].Landmarks[schema.Nose]
	l.Visibility = vis(0.2)
	frames[2].Landmarks[schema.Nose] = l

	params := testParams()
	params.RequireBodyInFrame = true
	params.BodyInFrameHold = 0.1 // three frames at 30 fps
	s, err := NewSession(params)
	require.NoError(t, err)

	for _, f := range frames[:5] {
		_ = s.ProcessFrame(f)
		_, ok := s.Calibration()
		require.False(t, ok, "frame %d is inside the hold", f.Index)
	}
	for _, f := range frames[5:] {
		_ = s.ProcessFrame(f)
	}

	cal, ok := s.Calibration()
	require.True(t, ok)
	assert.Equal(t, 5, cal.FrameIndex)
	shoulder, ok := s.tracker.ShoulderBaseline()
	require.True(t, ok)
	assert.Equal(t, 5, shoulder.FrameIndex)
	assert.Equal(t, 5, s.Summary(false).FramesSkipped)
}

func TestSessionFlightTimeBeforeCalibration(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.4, 0.5, 0.5)
	for _, f := range frames[:3] {
		delete(f.Landmarks, schema.Nose)
	}

	s, err := NewSession(testParams())
	require.NoError(t, err)
	for _, f := range frames[:3] {
		_ = s.ProcessFrame(f)
	}

	_, ok := s.Calibration()
	require.False(t, ok)
	summary := s.Summary(false)
	require.Len(t, summary.Events, 1)
	want := FlightTimeHeight(1.0/30) * 100
	assert.InDelta(t, want, summary.Events[0].HeightEstimate, 1e-9)
	assert.InDelta(t, want, summary.MaxHeight, 1e-9)
	assert.Equal(t, 0.0, summary.MaxDisplacementHeight)
	for _, p := range summary.Trace {
		assert.False(t, p.Valid, "frame %d has no displacement height before calibration", p.FrameIndex)
	}

	_ = s.ProcessFrame(frames[3])
	cal, ok := s.Calibration()
	require.True(t, ok)
	assert.Equal(t, 3, cal.FrameIndex)
}

func TestSessionDiscardedCycleIsNotified(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.4, 0.5)
	same := 2.0
	frames[1].Timestamp = &same
	frames[2].Timestamp = &same

	var notes []error
	s, err := NewSession(testParams(), WithNotifier(func(err error) { notes = append(notes, err) }))
	require.NoError(t, err)
	for _, f := range frames {
		_ = s.ProcessFrame(f)
	}

	summary := s.Summary(false)
	assert.Empty(t, summary.Events)
	assert.Equal(t, 1, summary.DiscardedCycles)
	require.Len(t, notes, 1)
	assert.ErrorIs(t, notes[0], ErrDiscardedCycle)
	assert.Equal(t, schema.Grounded, s.State())
}

func TestSessionFlightTimeTrace(t *testing.T) {
	params := testParams()
	params.TracePolicy = schema.FlightTimeTrace
	s, err := NewSession(params)
	require.NoError(t, err)

	for _, f := range framesFromAnkles(0.5, 0.5, 0.4, 0.4, 0.5, 0.5) {
		_ = s.ProcessFrame(f)
	}
	trace := s.Trace()
	require.Len(t, trace, 6)

	want := FlightTimeHeight(2.0/30) * 100
	for i, p := range trace {
		if i < 4 {
			assert.False(t, p.Valid, "frame %d comes before the first landing", i)
			continue
		}
		assert.True(t, p.Valid)
		assert.InDelta(t, want, p.Height, 1e-9)
	}
	assert.Equal(t, schema.Airborne, trace[2].State)
	assert.Equal(t, schema.Grounded, trace[4].State)
}

func TestSessionRunCancelled(t *testing.T) {
	s, err := NewSession(schema.DefaultSessionParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := s.Run(ctx, synth.NewSource(synth.DefaultConfig()))
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Zero(t, summary.FramesProcessed)
	assert.Empty(t, summary.Events)
	assert.Empty(t, summary.Peaks)
}

func TestSessionRunSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := &sliceSource{frames: framesFromAnkles(0.5, 0.5, 0.5), err: boom}

	s, err := NewSession(testParams())
	require.NoError(t, err)
	summary, err := s.Run(context.Background(), src)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, summary.FramesProcessed)
	assert.False(t, summary.Cancelled)
}

func TestSessionMidFlightCycleIsDropped(t *testing.T) {
	src := &sliceSource{frames: framesFromAnkles(0.5, 0.5, 0.4, 0.4)}
	s, err := NewSession(testParams())
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, summary.Events)
	assert.Equal(t, schema.Airborne, s.State())
}

func TestSessionSummaryIsACopy(t *testing.T) {
	s, err := NewSession(testParams(), WithSessionID("copy"))
	require.NoError(t, err)
	for _, f := range framesFromAnkles(0.5, 0.4, 0.5) {
		_ = s.ProcessFrame(f)
	}

	first := s.Summary(false)
	first.Events[0].HeightEstimate = -1
	first.Trace[0].Height = -1

	second := s.Summary(false)
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(schema.JumpEvent{}, "HeightEstimate"), cmpopts.IgnoreFields(schema.TracePoint{}, "Height")); diff != "" {
		t.Errorf("summary mismatch (-first +second):\n%s", diff)
	}
	assert.Greater(t, second.Events[0].HeightEstimate, 0.0)
	assert.Equal(t, 1, second.Stats.Count)
}
