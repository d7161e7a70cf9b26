package engine

import (
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// calibrationLandmarks must all be present in the calibration frame.
var calibrationLandmarks = []schema.LandmarkName{schema.Nose, schema.LeftAnkle, schema.RightAnkle}

// Calibrate derives the pixel to real-world scale from one frame of a person standing upright.
// knownHeight is the person's standing height in geo.Unit.
//
// The nose to heel span is corrected for stance width by treating half the ankle spread
// as the lateral leg of a right triangle, and then divided by the landmark correction K.
func Calibrate(frame schema.PoseFrame, knownHeight float64, geo Geometry) (schema.CalibrationResult, error) {
	if missing := frame.Missing(geo.MinVisibility, calibrationLandmarks...); len(missing) > 0 {
		return schema.CalibrationResult{}, &schema.CalibrationError{Frame: frame.Index, Missing: missing}
	}
	if !finitePositive(knownHeight) {
		return schema.CalibrationResult{}, &schema.CalibrationError{Frame: frame.Index, Reason: "known height must be positive"}
	}
	correction := geo.HeightCorrection
	if !finitePositive(correction) {
		correction = schema.DefaultHeightCorrection
	}

	nose, _ := frame.Get(schema.Nose, geo.MinVisibility)
	left, _ := frame.Get(schema.LeftAnkle, geo.MinVisibility)
	right, _ := frame.Get(schema.RightAnkle, geo.MinVisibility)

	_, noseY := geo.pixels(frame, nose)
	lx, ly := geo.pixels(frame, left)
	rx, ry := geo.pixels(frame, right)

	spread := math.Hypot(lx-rx, ly-ry) / 2
	heelY := (ly + ry) / 2
	hypotenuse := math.Abs(heelY - noseY)
	heightPx := math.Sqrt(hypotenuse*hypotenuse - spread*spread)

	if !finitePositive(heightPx) {
		return schema.CalibrationResult{}, &schema.CalibrationError{Frame: frame.Index, Reason: "degenerate geometry: ankle spread >= nose to heel span"}
	}
	scale := (knownHeight / heightPx) / correction
	if !finitePositive(scale) {
		return schema.CalibrationResult{}, &schema.CalibrationError{Frame: frame.Index, Reason: "scale factor is not finite"}
	}

	return schema.CalibrationResult{
		FrameIndex:   frame.Index,
		KnownHeight:  knownHeight,
		Unit:         geo.Unit,
		AnkleSpread:  spread,
		Hypotenuse:   hypotenuse,
		HeightPixels: heightPx,
		ScaleFactor:  scale,
	}, nil
}
