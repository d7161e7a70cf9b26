package engine

import (
	"fmt"
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// Gravity is standard gravity in m/s².
const Gravity = 9.81

// FlightTimeHeight returns the jump height in meters for a flight time in seconds.
// It solves t = 2·sqrt(2h/g) for h, assuming take-off and landing at the same level.
func FlightTimeHeight(flightTime float64) float64 {
	return flightTime * flightTime * Gravity / 8
}

// HeightEstimator turns displacements and flight times into heights in one unit
// and keeps the running maximum of everything it produced.
type HeightEstimator struct {
	unit       schema.LengthUnit
	scale      float64
	calibrated bool

	max       float64
	maxDisp   float64
	maxFlight float64
}

// NewHeightEstimator creates an estimator reporting in unit.
func NewHeightEstimator(unit schema.LengthUnit) *HeightEstimator {
	return &HeightEstimator{unit: unit}
}

// SetScale publishes the calibrated scale factor in unit per pixel.
func (e *HeightEstimator) SetScale(scale float64) error {
	if !finitePositive(scale) {
		return fmt.Errorf("%w: scale factor %v", schema.ErrCalibration, scale)
	}
	e.scale = scale
	e.calibrated = true
	return nil
}

// Scale returns the scale factor and whether calibration has happened.
func (e *HeightEstimator) Scale() (float64, bool) {
	return e.scale, e.calibrated
}

// FromDisplacement converts a shoulder displacement in pixels to a height.
// It reports false until a scale factor is set, and for non-finite input.
func (e *HeightEstimator) FromDisplacement(pixels float64) (float64, bool) {
	if !e.calibrated || math.IsNaN(pixels) || math.IsInf(pixels, 0) {
		return 0, false
	}
	h := pixels * e.scale
	e.maxDisp = math.Max(e.maxDisp, h)
	e.max = math.Max(e.max, h)
	return h, true
}

// FromFlightTime converts a flight time in seconds to a height.
// The physics model needs no calibration.
func (e *HeightEstimator) FromFlightTime(flightTime float64) float64 {
	h := FlightTimeHeight(flightTime) * e.unit.PerMeter()
	e.maxFlight = math.Max(e.maxFlight, h)
	e.max = math.Max(e.max, h)
	return h
}

// Max returns the largest height produced so far. It never decreases.
func (e *HeightEstimator) Max() float64 { return e.max }

// MaxDisplacement returns the largest displacement-based height.
func (e *HeightEstimator) MaxDisplacement() float64 { return e.maxDisp }

// MaxFlightTime returns the largest flight-time-based height.
func (e *HeightEstimator) MaxFlightTime() float64 { return e.maxFlight }

// Unit returns the reporting unit.
func (e *HeightEstimator) Unit() schema.LengthUnit { return e.unit }
