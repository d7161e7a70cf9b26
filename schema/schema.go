// Package schema has models, constants and errors shared by every part of vertimeter.
package schema

import "math"

// LandmarkName identifies one anatomical point produced by the pose model.
type LandmarkName string

// Landmarks consumed by the engine.
const (
	Nose           LandmarkName = "nose"
	LeftShoulder   LandmarkName = "left_shoulder"
	RightShoulder  LandmarkName = "right_shoulder"
	LeftAnkle      LandmarkName = "left_ankle"
	RightAnkle     LandmarkName = "right_ankle"
	LeftFootIndex  LandmarkName = "left_foot_index"
	RightFootIndex LandmarkName = "right_foot_index"
)

// TrackedLandmarks is the full set of landmarks the engine knows about.
var TrackedLandmarks = []LandmarkName{
	Nose,
	LeftShoulder,
	RightShoulder,
	LeftAnkle,
	RightAnkle,
	LeftFootIndex,
	RightFootIndex,
}

// Landmark is a single named point with coordinates normalized to [0,1]
// of the frame width and height. Image-space y grows downward.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// VisibilityOr returns the landmark visibility, or def when the pose model gave none.
func (l Landmark) VisibilityOr(def float64) float64 {
	if l.Visibility == nil {
		return def
	}
	return *l.Visibility
}

// Finite reports whether both coordinates are real numbers.
func (l Landmark) Finite() bool {
	return !math.IsNaN(l.X) && !math.IsInf(l.X, 0) && !math.IsNaN(l.Y) && !math.IsInf(l.Y, 0)
}

// PoseFrame is the full set of landmarks for one video frame.
type PoseFrame struct {
	Index     int                       `json:"frame"`
	Timestamp *float64                  `json:"timestamp,omitempty"`
	Width     int                       `json:"width,omitempty"`
	Height    int                       `json:"height,omitempty"`
	Landmarks map[LandmarkName]Landmark `json:"landmarks"`
}

// Get returns the named landmark if present, finite and at least minVisibility visible.
// Landmarks without a visibility score are always considered visible.
func (f PoseFrame) Get(name LandmarkName, minVisibility float64) (Landmark, bool) {
	l, ok := f.Landmarks[name]
	if !ok || !l.Finite() {
		return Landmark{}, false
	}
	if l.VisibilityOr(1) < minVisibility {
		return Landmark{}, false
	}
	return l, true
}

// Missing returns the subset of names that Get would not return.
func (f PoseFrame) Missing(minVisibility float64, names ...LandmarkName) []LandmarkName {
	var missing []LandmarkName
	for _, name := range names {
		if _, ok := f.Get(name, minVisibility); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Dimensions returns the frame size in pixels, falling back to the defaults
// when the frame does not carry its own size.
func (f PoseFrame) Dimensions(defaultWidth, defaultHeight int) (float64, float64) {
	w, h := f.Width, f.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return float64(w), float64(h)
}
