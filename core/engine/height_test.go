package engine

import (
	"math"
	"testing"

	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightTimeHeight(t *testing.T) {
	assert.InDelta(t, 0.1962, FlightTimeHeight(0.4), 1e-12)
	assert.InDelta(t, 0.4*0.4*1.22625, FlightTimeHeight(0.4), 1e-12)
	assert.Zero(t, FlightTimeHeight(0))

	// Inverse of t = 2·sqrt(2h/g)
	h := FlightTimeHeight(0.55)
	assert.InDelta(t, 0.55, 2*math.Sqrt(2*h/Gravity), 1e-12)
}

func TestHeightEstimatorUnits(t *testing.T) {
	assert.InDelta(t, 19.62, NewHeightEstimator(schema.Centimeters).FromFlightTime(0.4), 1e-9)
	assert.InDelta(t, 0.1962, NewHeightEstimator(schema.Meters).FromFlightTime(0.4), 1e-12)
}

func TestHeightEstimatorScale(t *testing.T) {
	e := NewHeightEstimator(schema.Centimeters)

	_, ok := e.FromDisplacement(100)
	assert.False(t, ok, "uncalibrated estimator has no displacement height")

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, e.SetScale(bad), schema.ErrCalibration)
	}
	_, calibrated := e.Scale()
	assert.False(t, calibrated)

	require.NoError(t, e.SetScale(0.25))
	h, ok := e.FromDisplacement(100)
	assert.True(t, ok)
	assert.Equal(t, 25.0, h)
}

func TestHeightEstimatorMaxIsMonotonic(t *testing.T) {
	e := NewHeightEstimator(schema.Centimeters)
	require.NoError(t, e.SetScale(0.1))

	prev := e.Max()
	for _, px := range []float64{10, 50, 20, 0, 80, 5} {
		e.FromDisplacement(px)
		assert.GreaterOrEqual(t, e.Max(), prev)
		prev = e.Max()
	}
	assert.Equal(t, 8.0, e.MaxDisplacement())

	e.FromFlightTime(0.1)
	assert.Equal(t, 8.0, e.Max())
	e.FromFlightTime(0.5)
	assert.InDelta(t, FlightTimeHeight(0.5)*100, e.Max(), 1e-9)
	assert.Equal(t, e.Max(), e.MaxFlightTime())
	assert.Equal(t, 8.0, e.MaxDisplacement())
}

func TestHeightEstimatorIgnoresNonFinite(t *testing.T) {
	e := NewHeightEstimator(schema.Centimeters)
	require.NoError(t, e.SetScale(0.1))
	e.FromDisplacement(40)

	for _, px := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, ok := e.FromDisplacement(px)
		assert.False(t, ok)
	}
	assert.Equal(t, 4.0, e.Max())
	assert.Equal(t, 4.0, e.MaxDisplacement())
}
