package engine

import (
	"testing"

	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	assert.Equal(t, schema.JumpStats{}, ComputeStats(nil))

	single := ComputeStats([]schema.JumpEvent{{HeightEstimate: 30, FlightTime: 0.5}})
	assert.Equal(t, 1, single.Count)
	assert.Equal(t, 30.0, single.MeanHeight)
	assert.Zero(t, single.StdDevHeight)
	assert.Equal(t, 0.5, single.BestFlightTime)

	stats := ComputeStats([]schema.JumpEvent{
		{HeightEstimate: 10, FlightTime: 0.3},
		{HeightEstimate: 30, FlightTime: 0.5},
		{HeightEstimate: 20, FlightTime: 0.4},
	})
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 20.0, stats.MeanHeight, 1e-9)
	assert.InDelta(t, 10.0, stats.StdDevHeight, 1e-9)
	assert.Equal(t, 30.0, stats.BestHeight)
	assert.InDelta(t, 0.4, stats.MeanFlightTime, 1e-9)
	assert.Equal(t, 0.5, stats.BestFlightTime)
}
