package schema

// CalibrationResult is the pixel to real-world scale derived from one reference frame.
// ScaleFactor is expressed in Unit per pixel and is always finite and positive.
type CalibrationResult struct {
	FrameIndex   int        `json:"frame_index"`
	KnownHeight  float64    `json:"known_height"`
	Unit         LengthUnit `json:"unit"`
	AnkleSpread  float64    `json:"ankle_spread_px"`
	Hypotenuse   float64    `json:"hypotenuse_px"`
	HeightPixels float64    `json:"height_px"`
	ScaleFactor  float64    `json:"scale_factor"`
}

// ReferenceBaseline is a snapshot of resting landmark positions.
type ReferenceBaseline struct {
	FrameIndex int                       `json:"frame_index"`
	Landmarks  map[LandmarkName]Landmark `json:"landmarks"`
}

// JumpEvent is one completed take-off to landing cycle.
type JumpEvent struct {
	Sequence         int        `json:"sequence"`
	TakeOffFrame     int        `json:"take_off_frame"`
	TakeOffTime      float64    `json:"take_off_time"`
	LandingFrame     int        `json:"landing_frame"`
	LandingTime      float64    `json:"landing_time"`
	FlightTime       float64    `json:"flight_time"`
	HeightEstimate   float64    `json:"height_estimate"`   // flight-time model
	DisplacementApex float64    `json:"displacement_apex"` // highest shoulder-based value while airborne
	Unit             LengthUnit `json:"unit"`
}

// TracePoint is the height estimate recorded for one processed frame.
// Valid is false when the frame produced no estimate; Height is then zero and must be ignored.
type TracePoint struct {
	FrameIndex int         `json:"frame"`
	Time       float64     `json:"time"`
	Height     float64     `json:"height"`
	Valid      bool        `json:"valid"`
	State      FlightState `json:"state"`
}

// Peak is a local maximum of the height trace.
type Peak struct {
	Index      int     `json:"index"` // position among the valid trace values
	FrameIndex int     `json:"frame"`
	Time       float64 `json:"time"`
	Value      float64 `json:"value"`
}

// JumpStats summarizes the jump events of a session.
type JumpStats struct {
	Count          int     `json:"count"`
	MeanHeight     float64 `json:"mean_height"`
	StdDevHeight   float64 `json:"stddev_height"`
	BestHeight     float64 `json:"best_height"`
	MeanFlightTime float64 `json:"mean_flight_time"`
	BestFlightTime float64 `json:"best_flight_time"`
}

// SessionSummary is produced once the frame stream ends or the session is cancelled.
type SessionSummary struct {
	SessionID             string             `json:"session_id"`
	Source                string             `json:"source,omitempty"`
	Params                SessionParams      `json:"params"`
	Calibration           *CalibrationResult `json:"calibration,omitempty"`
	Unit                  LengthUnit         `json:"unit"`
	MaxHeight             float64            `json:"max_height"`
	MaxDisplacementHeight float64            `json:"max_displacement_height"`
	MaxFlightTimeHeight   float64            `json:"max_flight_time_height"`
	Events                []JumpEvent        `json:"events"`
	Peaks                 []Peak             `json:"peaks"`
	Stats                 JumpStats          `json:"stats"`
	FramesProcessed       int                `json:"frames_processed"`
	FramesSkipped         int                `json:"frames_skipped"`
	CalibrationFailures   int                `json:"calibration_failures"`
	DiscardedCycles       int                `json:"discarded_cycles"`
	Cancelled             bool               `json:"cancelled"`
	Cached                bool               `json:"cached,omitempty"`
	Trace                 []TracePoint       `json:"trace,omitempty"`
}

// ValidTraceValues returns the heights of the valid trace points in order,
// together with the trace positions they came from.
func ValidTraceValues(trace []TracePoint) ([]float64, []int) {
	values := make([]float64, 0, len(trace))
	positions := make([]int, 0, len(trace))
	for i, p := range trace {
		if !p.Valid {
			continue
		}
		values = append(values, p.Height)
		positions = append(positions, i)
	}
	return values, positions
}
