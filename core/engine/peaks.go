package engine

import (
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// PeakOptions tunes FindPeaks.
type PeakOptions struct {
	// Tolerance is how much a value must exceed a neighbor to count as higher.
	Tolerance float64
	// MergePlateaus reports a flat top as one peak at its first index.
	MergePlateaus bool
}

// FindPeaks returns the interior local maxima of trace in index order.
// Index and FrameIndex are both the position in trace; callers holding a sparse
// trace map FrameIndex back themselves. The input is never modified.
func FindPeaks(trace []float64, opts PeakOptions) []schema.Peak {
	tol := math.Max(opts.Tolerance, 0)
	peaks := []schema.Peak{}
	n := len(trace)

	for i := 1; i < n-1; i++ {
		if trace[i]-trace[i-1] <= tol {
			continue
		}
		if trace[i]-trace[i+1] > tol {
			peaks = append(peaks, schema.Peak{Index: i, FrameIndex: i, Value: trace[i]})
			continue
		}
		if !opts.MergePlateaus {
			continue
		}

		// Walk the flat run that starts at i.
		j := i
		for j+1 < n && math.Abs(trace[j+1]-trace[i]) <= tol {
			j++
		}
		if j > i && j+1 < n && trace[i]-trace[j+1] > tol {
			peaks = append(peaks, schema.Peak{Index: i, FrameIndex: i, Value: trace[i]})
		}
		if j > i {
			i = j - 1
		}
	}
	return peaks
}

// TracePeaks runs FindPeaks over the valid points of a session trace and maps
// each peak back to its frame index and time.
func TracePeaks(trace []schema.TracePoint, opts PeakOptions) []schema.Peak {
	values, positions := schema.ValidTraceValues(trace)
	peaks := FindPeaks(values, opts)
	for i := range peaks {
		p := trace[positions[peaks[i].Index]]
		peaks[i].FrameIndex = p.FrameIndex
		peaks[i].Time = p.Time
	}
	return peaks
}
