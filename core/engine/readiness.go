package engine

import (
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// Body-in-frame thresholds.
const (
	readyAverageVisibility  = 0.9
	readyLandmarkVisibility = 0.8
	readyLandmarkShare      = 0.95
)

// BodyInFrame reports whether the listed landmarks are visible enough to trust the frame
// for calibration and baselines. Landmarks without a score count as fully visible;
// absent or non-finite landmarks count as invisible.
func BodyInFrame(frame schema.PoseFrame, names []schema.LandmarkName) bool {
	if len(names) == 0 {
		return false
	}
	var sum float64
	var visible int
	for _, name := range names {
		l, ok := frame.Landmarks[name]
		if !ok || !l.Finite() {
			continue
		}
		v := l.VisibilityOr(1)
		sum += v
		if v > readyLandmarkVisibility {
			visible++
		}
	}
	n := float64(len(names))
	return sum/n > readyAverageVisibility && float64(visible)/n > readyLandmarkShare
}

// ReadinessGate opens once the body has been in frame for a continuous hold.
// Any frame that fails BodyInFrame restarts the count.
type ReadinessGate struct {
	enabled bool
	hold    int
	streak  int
}

// NewReadinessGate builds the gate for params. A disabled gate is always open.
func NewReadinessGate(params schema.SessionParams) *ReadinessGate {
	return &ReadinessGate{
		enabled: params.RequireBodyInFrame,
		hold:    HoldFrames(params.BodyInFrameHold, params.FrameRate),
	}
}

// HoldFrames converts a hold in seconds to a count of consecutive frames, at least one.
func HoldFrames(seconds, frameRate float64) int {
	n := math.Ceil(seconds*frameRate - 1e-9)
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return max(int(n), 1)
}

// Observe counts frame toward the hold and reports whether the gate is open.
func (g *ReadinessGate) Observe(frame schema.PoseFrame) bool {
	if !g.enabled {
		return true
	}
	if BodyInFrame(frame, schema.TrackedLandmarks) {
		g.streak++
	} else {
		g.streak = 0
	}
	return g.streak >= g.hold
}
