// Package engine detects jump events in a stream of pose frames and measures them.
//
// A Session wires the pieces in frame order: Calibrate once, then the
// ReferencePoseTracker, the FlightStateMachine and the HeightEstimator on every
// frame, and FindPeaks over the recorded trace once the stream ends.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// ErrNoBaseline is returned when a displacement is requested before any baseline was captured.
var ErrNoBaseline = errors.New("baseline not captured")

// ErrDiscardedCycle is reported when a landing produces a non-positive flight time.
var ErrDiscardedCycle = errors.New("jump cycle discarded")

// Geometry describes how normalized landmarks map to pixels.
type Geometry struct {
	FrameWidth       int
	FrameHeight      int
	MinVisibility    float64
	HeightCorrection float64
	Unit             schema.LengthUnit
}

// GeometryFromParams extracts the geometry part of the session params.
func GeometryFromParams(p schema.SessionParams) Geometry {
	return Geometry{
		FrameWidth:       p.FrameWidth,
		FrameHeight:      p.FrameHeight,
		MinVisibility:    p.MinVisibility,
		HeightCorrection: p.HeightCorrection,
		Unit:             p.Unit,
	}
}

// pixels converts a normalized landmark to pixel coordinates for the given frame.
func (g Geometry) pixels(frame schema.PoseFrame, l schema.Landmark) (x, y float64) {
	w, h := frame.Dimensions(g.FrameWidth, g.FrameHeight)
	return l.X * w, l.Y * h
}

// frameTime returns the frame timestamp, or derives it from the index and frame rate
// when the timestamp is absent or not finite.
func frameTime(frame schema.PoseFrame, frameRate float64) float64 {
	if frame.Timestamp != nil && !math.IsNaN(*frame.Timestamp) && !math.IsInf(*frame.Timestamp, 0) {
		return *frame.Timestamp
	}
	return float64(frame.Index) / frameRate
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ValidateParams checks that the session params can drive a session.
// An inverted hysteresis band is accepted; callers decide whether to warn about it.
func ValidateParams(p schema.SessionParams) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"known height", p.KnownHeight},
		{"frame rate", p.FrameRate},
		{"take-off threshold", p.TakeOffThreshold},
		{"landing threshold", p.LandingThreshold},
		{"height correction", p.HeightCorrection},
	}
	for _, c := range checks {
		if !finitePositive(c.value) {
			return fmt.Errorf("%w: %s must be a positive finite number, got %v", schema.ErrInvalidParams, c.name, c.value)
		}
	}
	if p.MinVisibility < 0 || p.MinVisibility > 1 {
		return fmt.Errorf("%w: min visibility must be between 0 and 1, got %v", schema.ErrInvalidParams, p.MinVisibility)
	}
	if p.BodyInFrameHold < 0 || math.IsNaN(p.BodyInFrameHold) || math.IsInf(p.BodyInFrameHold, 0) {
		return fmt.Errorf("%w: body-in-frame hold must be a finite number >= 0, got %v", schema.ErrInvalidParams, p.BodyInFrameHold)
	}
	if p.PeakTolerance < 0 || math.IsNaN(p.PeakTolerance) {
		return fmt.Errorf("%w: peak tolerance must be >= 0, got %v", schema.ErrInvalidParams, p.PeakTolerance)
	}
	if _, ok := schema.ValidLengthUnits[p.Unit]; !ok {
		return fmt.Errorf("%w: unknown unit %q", schema.ErrInvalidParams, p.Unit)
	}
	if _, ok := schema.ValidTriggerModes[p.Trigger]; !ok {
		return fmt.Errorf("%w: unknown trigger %q", schema.ErrInvalidParams, p.Trigger)
	}
	if _, ok := schema.ValidDisplacementModes[p.Displacement]; !ok {
		return fmt.Errorf("%w: unknown displacement mode %q", schema.ErrInvalidParams, p.Displacement)
	}
	if _, ok := schema.ValidContactPoints[p.Contact]; !ok {
		return fmt.Errorf("%w: unknown contact point %q", schema.ErrInvalidParams, p.Contact)
	}
	if _, ok := schema.ValidTracePolicies[p.TracePolicy]; !ok {
		return fmt.Errorf("%w: unknown trace policy %q", schema.ErrInvalidParams, p.TracePolicy)
	}
	return nil
}

// InvertedBand reports whether the landing threshold is not below the take-off threshold.
func InvertedBand(p schema.SessionParams) bool {
	return p.TakeOffThreshold <= p.LandingThreshold
}
