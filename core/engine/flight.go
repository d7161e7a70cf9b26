package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/vertimeter/schema"
)

// FlightStateMachine classifies frames as grounded or airborne with a hysteresis band
// and emits a JumpEvent for every completed take-off to landing cycle.
type FlightStateMachine struct {
	params    schema.SessionParams
	tracker   *ReferencePoseTracker
	estimator *HeightEstimator

	state        schema.FlightState
	takeOffFrame int
	takeOffTime  float64
	apex         float64
	sequence     int
}

// NewFlightStateMachine creates a machine in the grounded state.
func NewFlightStateMachine(params schema.SessionParams, tracker *ReferencePoseTracker, estimator *HeightEstimator) *FlightStateMachine {
	return &FlightStateMachine{
		params:    params,
		tracker:   tracker,
		estimator: estimator,
		state:     schema.Grounded,
	}
}

// State returns the current flight state.
func (m *FlightStateMachine) State() schema.FlightState { return m.state }

// Step advances the machine by one frame. It returns the completed JumpEvent on
// landing, or nil. A frame missing either contact landmark leaves the state and
// baselines untouched and returns a MissingLandmarkError. A landing with a
// non-positive flight time returns ErrDiscardedCycle and no event.
func (m *FlightStateMachine) Step(frame schema.PoseFrame) (*schema.JumpEvent, error) {
	left, err := m.tracker.AnkleDisplacement(frame, Left)
	if err != nil {
		return nil, m.missing(frame, err)
	}
	right, err := m.tracker.AnkleDisplacement(frame, Right)
	if err != nil {
		return nil, m.missing(frame, err)
	}
	left, right = m.measure(left), m.measure(right)

	switch m.state {
	case schema.Grounded:
		if m.liftedOff(left, right) {
			return nil, m.takeOff(frame)
		}
	case schema.Airborne:
		// Landing needs both feet back inside the band.
		if left < m.params.LandingThreshold && right < m.params.LandingThreshold {
			return m.land(frame)
		}
	}
	return nil, nil
}

// observeDisplacement records a displacement-based height seen while airborne.
func (m *FlightStateMachine) observeDisplacement(h float64) {
	if m.state == schema.Airborne {
		m.apex = math.Max(m.apex, h)
	}
}

func (m *FlightStateMachine) measure(rise float64) float64 {
	if m.params.Displacement == schema.UnsignedDisplacement {
		return math.Abs(rise)
	}
	return rise
}

func (m *FlightStateMachine) liftedOff(left, right float64) bool {
	t := m.params.TakeOffThreshold
	if m.params.Trigger == schema.SingleFoot {
		return left > t || right > t
	}
	return left > t && right > t
}

func (m *FlightStateMachine) takeOff(frame schema.PoseFrame) error {
	if m.state != schema.Grounded {
		return fmt.Errorf("%w: take-off while %s", schema.ErrInvalidTransition, m.state)
	}
	m.state = schema.Airborne
	m.takeOffFrame = frame.Index
	m.takeOffTime = frameTime(frame, m.params.FrameRate)
	m.apex = 0
	return nil
}

func (m *FlightStateMachine) land(frame schema.PoseFrame) (*schema.JumpEvent, error) {
	if m.state != schema.Airborne {
		return nil, fmt.Errorf("%w: landing while %s", schema.ErrInvalidTransition, m.state)
	}
	landingTime := frameTime(frame, m.params.FrameRate)
	flightTime := landingTime - m.takeOffTime
	m.state = schema.Grounded

	if !(flightTime > 0) {
		takeOff := m.takeOffFrame
		m.clearTakeOff()
		return nil, fmt.Errorf("%w: frames %d to %d give flight time %v", ErrDiscardedCycle, takeOff, frame.Index, flightTime)
	}

	m.sequence++
	event := &schema.JumpEvent{
		Sequence:         m.sequence,
		TakeOffFrame:     m.takeOffFrame,
		TakeOffTime:      m.takeOffTime,
		LandingFrame:     frame.Index,
		LandingTime:      landingTime,
		FlightTime:       flightTime,
		HeightEstimate:   m.estimator.FromFlightTime(flightTime),
		DisplacementApex: m.apex,
		Unit:             m.estimator.Unit(),
	}
	m.tracker.reanchorAnkleBaseline(frame)
	m.clearTakeOff()
	return event, nil
}

func (m *FlightStateMachine) clearTakeOff() {
	m.takeOffFrame = 0
	m.takeOffTime = 0
	m.apex = 0
}

func (m *FlightStateMachine) missing(frame schema.PoseFrame, err error) error {
	if errors.Is(err, ErrNoBaseline) {
		return err
	}
	left, right := m.tracker.contact.Landmarks()
	missing := frame.Missing(m.tracker.geo.MinVisibility, left, right)
	return &schema.MissingLandmarkError{Frame: frame.Index, Landmarks: missing}
}
