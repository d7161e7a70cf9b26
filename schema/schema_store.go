package schema

import "time"

// SessionRunRecord represents a row from the vertimeter_session_runs table.
type SessionRunRecord struct {
	RunID           int64
	SessionID       string
	Source          string
	StartTime       time.Time
	EndTime         *time.Time
	RunDurationMs   *int32
	FramesProcessed int32
	JumpCount       int32
	MaxHeight       *float64
	ScaleFactor     *float64
	Unit            string
	ConfigParams    *string
}

// JumpEventRecord represents a row from the vertimeter_jump_events table.
type JumpEventRecord struct {
	RunID            int64
	Sequence         int32
	TakeOffFrame     int32
	LandingFrame     int32
	TakeOffTime      float64
	LandingTime      float64
	FlightTime       float64
	HeightEstimate   float64
	DisplacementApex float64
	Unit             string
}
