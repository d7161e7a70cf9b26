package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the engine. Typed errors below unwrap to these.
var (
	ErrCalibration       = errors.New("calibration failed")
	ErrMissingLandmark   = errors.New("missing landmark")
	ErrInvalidTransition = errors.New("invalid flight state transition")
	ErrInvalidParams     = errors.New("invalid session parameters")
)

// CalibrationError reports a frame that could not produce a scale factor.
// It is never fatal: the session retries on the next frame.
type CalibrationError struct {
	Frame   int
	Reason  string
	Missing []LandmarkName
}

func (e *CalibrationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("frame %d: %v: missing %s", e.Frame, ErrCalibration, joinNames(e.Missing))
	}
	return fmt.Sprintf("frame %d: %v: %s", e.Frame, ErrCalibration, e.Reason)
}

// Unwrap allows errors.Is(err, ErrCalibration).
func (e *CalibrationError) Unwrap() error { return ErrCalibration }

// MissingLandmarkError reports a frame skipped because required landmarks were absent.
type MissingLandmarkError struct {
	Frame     int
	Landmarks []LandmarkName
}

func (e *MissingLandmarkError) Error() string {
	return fmt.Sprintf("frame %d: %v: %s", e.Frame, ErrMissingLandmark, joinNames(e.Landmarks))
}

// Unwrap allows errors.Is(err, ErrMissingLandmark).
func (e *MissingLandmarkError) Unwrap() error { return ErrMissingLandmark }

func joinNames(names []LandmarkName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
