package engine

import (
	"maps"
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// Side selects one foot.
type Side int

// Feet.
const (
	Left Side = iota
	Right
)

// ReferencePoseTracker owns the two resting-pose baselines of a session.
//
// The shoulder baseline is written once and feeds the continuous displacement.
// The ankle baseline is written once and then re-anchored by the state machine
// after every completed jump.
type ReferencePoseTracker struct {
	geo      Geometry
	contact  schema.ContactPoint
	mode     schema.DisplacementMode
	shoulder *schema.ReferenceBaseline
	ankle    *schema.ReferenceBaseline
}

// NewReferencePoseTracker creates a tracker with no baselines.
func NewReferencePoseTracker(geo Geometry, contact schema.ContactPoint, mode schema.DisplacementMode) *ReferencePoseTracker {
	return &ReferencePoseTracker{geo: geo, contact: contact, mode: mode}
}

// Ready reports whether both baselines have been captured.
func (t *ReferencePoseTracker) Ready() bool {
	return t.shoulder != nil && t.ankle != nil
}

// Update feeds one frame to the tracker.
//
// The first frame carrying both shoulders and both contact landmarks sets both
// baselines and yields no displacement. Later frames yield the vertical pixel
// displacement of the shoulder midpoint from its baseline.
func (t *ReferencePoseTracker) Update(frame schema.PoseFrame) (float64, bool, error) {
	shoulders := []schema.LandmarkName{schema.LeftShoulder, schema.RightShoulder}
	if !t.Ready() {
		left, right := t.contact.Landmarks()
		if missing := frame.Missing(t.geo.MinVisibility, schema.LeftShoulder, schema.RightShoulder, left, right); len(missing) > 0 {
			return 0, false, &schema.MissingLandmarkError{Frame: frame.Index, Landmarks: missing}
		}
		t.shoulder = t.snapshot(frame, shoulders...)
		t.ankle = t.snapshot(frame, left, right)
		return 0, false, nil
	}

	if missing := frame.Missing(t.geo.MinVisibility, shoulders...); len(missing) > 0 {
		return 0, false, &schema.MissingLandmarkError{Frame: frame.Index, Landmarks: missing}
	}
	baseY := t.shoulderMidY(frame, t.shoulder.Landmarks)
	currY := t.shoulderMidY(frame, frame.Landmarks)

	// Image y grows downward, so rising is a decrease in y.
	rise := baseY - currY
	if t.mode == schema.UnsignedDisplacement {
		return math.Abs(rise), true, nil
	}
	return math.Max(rise, 0), true, nil
}

// AnkleDisplacement returns the normalized upward displacement of one contact
// landmark from the ankle baseline. Positive values mean the foot is higher
// than at rest.
func (t *ReferencePoseTracker) AnkleDisplacement(frame schema.PoseFrame, side Side) (float64, error) {
	if t.ankle == nil {
		return 0, ErrNoBaseline
	}
	name := t.contactName(side)
	current, ok := frame.Get(name, t.geo.MinVisibility)
	if !ok {
		return 0, &schema.MissingLandmarkError{Frame: frame.Index, Landmarks: []schema.LandmarkName{name}}
	}
	return t.ankle.Landmarks[name].Y - current.Y, nil
}

// reanchorAnkleBaseline moves the ankle baseline to the current frame.
// Only FlightStateMachine calls it, on a completed landing.
func (t *ReferencePoseTracker) reanchorAnkleBaseline(frame schema.PoseFrame) {
	left, right := t.contact.Landmarks()
	if len(frame.Missing(t.geo.MinVisibility, left, right)) > 0 {
		return
	}
	t.ankle = t.snapshot(frame, left, right)
}

// ShoulderBaseline returns a copy of the shoulder baseline.
func (t *ReferencePoseTracker) ShoulderBaseline() (schema.ReferenceBaseline, bool) {
	return copyBaseline(t.shoulder)
}

// AnkleBaseline returns a copy of the ankle baseline.
func (t *ReferencePoseTracker) AnkleBaseline() (schema.ReferenceBaseline, bool) {
	return copyBaseline(t.ankle)
}

func (t *ReferencePoseTracker) contactName(side Side) schema.LandmarkName {
	left, right := t.contact.Landmarks()
	if side == Left {
		return left
	}
	return right
}

func (t *ReferencePoseTracker) snapshot(frame schema.PoseFrame, names ...schema.LandmarkName) *schema.ReferenceBaseline {
	b := &schema.ReferenceBaseline{
		FrameIndex: frame.Index,
		Landmarks:  make(map[schema.LandmarkName]schema.Landmark, len(names)),
	}
	for _, name := range names {
		b.Landmarks[name] = frame.Landmarks[name]
	}
	return b
}

// shoulderMidY returns the pixel y of the shoulder midpoint, scaled by the current frame size.
func (t *ReferencePoseTracker) shoulderMidY(frame schema.PoseFrame, lms map[schema.LandmarkName]schema.Landmark) float64 {
	_, ly := t.geo.pixels(frame, lms[schema.LeftShoulder])
	_, ry := t.geo.pixels(frame, lms[schema.RightShoulder])
	return (ly + ry) / 2
}

func copyBaseline(b *schema.ReferenceBaseline) (schema.ReferenceBaseline, bool) {
	if b == nil {
		return schema.ReferenceBaseline{}, false
	}
	return schema.ReferenceBaseline{FrameIndex: b.FrameIndex, Landmarks: maps.Clone(b.Landmarks)}, true
}
