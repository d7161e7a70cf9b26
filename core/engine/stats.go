package engine

import (
	"github.com/huangsam/vertimeter/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComputeStats summarizes the heights and flight times of a list of jumps.
func ComputeStats(events []schema.JumpEvent) schema.JumpStats {
	if len(events) == 0 {
		return schema.JumpStats{}
	}
	heights := make([]float64, len(events))
	flights := make([]float64, len(events))
	for i, e := range events {
		heights[i] = e.HeightEstimate
		flights[i] = e.FlightTime
	}

	stats := schema.JumpStats{
		Count:          len(events),
		BestHeight:     floats.Max(heights),
		MeanFlightTime: stat.Mean(flights, nil),
		BestFlightTime: floats.Max(flights),
	}
	if len(events) == 1 {
		stats.MeanHeight = heights[0]
		return stats
	}
	stats.MeanHeight, stats.StdDevHeight = stat.MeanStdDev(heights, nil)
	return stats
}
