package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/huangsam/vertimeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMachine feeds frames to a fresh tracker and machine. The first frame sets the baselines.
func runMachine(t *testing.T, params schema.SessionParams, frames []schema.PoseFrame) (*FlightStateMachine, []schema.JumpEvent, []error) {
	t.Helper()
	geo := GeometryFromParams(params)
	tracker := NewReferencePoseTracker(geo, params.Contact, params.Displacement)
	machine := NewFlightStateMachine(params, tracker, NewHeightEstimator(params.Unit))

	_, _, err := tracker.Update(frames[0])
	require.NoError(t, err)

	var events []schema.JumpEvent
	var errs []error
	for _, f := range frames[1:] {
		event, err := machine.Step(f)
		if err != nil {
			errs = append(errs, err)
		}
		if event != nil {
			events = append(events, *event)
		}
	}
	return machine, events, errs
}

func TestHysteresisCycle(t *testing.T) {
	for _, mode := range []schema.DisplacementMode{schema.SignedDisplacement, schema.UnsignedDisplacement} {
		for _, trigger := range []schema.TriggerMode{schema.BothFeet, schema.SingleFoot} {
			t.Run(string(mode)+"/"+string(trigger), func(t *testing.T) {
				params := testParams()
				params.TakeOffThreshold = 0.03
				params.LandingThreshold = 0.035
				params.Displacement = mode
				params.Trigger = trigger

				frames := framesFromAnkles(0.50, 0.50, 0.40, 0.40, 0.49, 0.51)
				machine, events, errs := runMachine(t, params, frames)
				assert.Empty(t, errs)
				require.Len(t, events, 1)

				want := schema.JumpEvent{
					Sequence:       1,
					TakeOffFrame:   2,
					TakeOffTime:    2.0 / 30,
					LandingFrame:   4,
					LandingTime:    4.0 / 30,
					FlightTime:     2.0 / 30,
					HeightEstimate: FlightTimeHeight(2.0/30) * 100,
					Unit:           schema.Centimeters,
				}
				if diff := cmp.Diff(want, events[0]); diff != "" {
					t.Errorf("event mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, schema.Grounded, machine.State())
			})
		}
	}
}

func TestTriggerModes(t *testing.T) {
	// Only the left foot leaves the ground
	frames := framesFromAnkles(0.5, 0.5, 0.5, 0.5, 0.5)
	frames[2].Landmarks[schema.LeftAnkle] = schema.Landmark{X: 0.48, Y: 0.4}
	frames[3].Landmarks[schema.LeftAnkle] = schema.Landmark{X: 0.48, Y: 0.4}

	params := testParams()
	_, events, _ := runMachine(t, params, frames)
	assert.Empty(t, events, "both_feet needs both feet up")

	params.Trigger = schema.SingleFoot
	_, events, _ = runMachine(t, params, frames)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].TakeOffFrame)
	assert.Equal(t, 4, events[0].LandingFrame)
}

func TestSignedIgnoresSinking(t *testing.T) {
	// Feet drop below the baseline, for example when the camera tilts
	frames := framesFromAnkles(0.5, 0.6, 0.6, 0.5)

	params := testParams()
	machine, events, _ := runMachine(t, params, frames)
	assert.Empty(t, events)
	assert.Equal(t, schema.Grounded, machine.State())

	params.Displacement = schema.UnsignedDisplacement
	_, events, _ = runMachine(t, params, frames)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].TakeOffFrame)
	assert.Equal(t, 3, events[0].LandingFrame)
}

func TestHysteresisBandHoldsState(t *testing.T) {
	params := testParams()
	// Between landing 0.03 and take-off 0.05 nothing changes in either state
	frames := framesFromAnkles(0.5, 0.46, 0.46, 0.4, 0.46, 0.46, 0.46, 0.5)
	machine, events, _ := runMachine(t, params, frames)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].TakeOffFrame)
	assert.Equal(t, 7, events[0].LandingFrame)
	assert.Equal(t, schema.Grounded, machine.State())
}

func TestMissingAnkleWhileAirborne(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.4, 0.4, 0.5)
	delete(frames[2].Landmarks, schema.RightAnkle)

	machine, events, errs := runMachine(t, testParams(), frames)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], schema.ErrMissingLandmark)

	var missErr *schema.MissingLandmarkError
	require.ErrorAs(t, errs[0], &missErr)
	assert.Equal(t, 2, missErr.Frame)
	assert.Equal(t, []schema.LandmarkName{schema.RightAnkle}, missErr.Landmarks)

	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].TakeOffFrame)
	assert.Equal(t, 3, events[0].LandingFrame)
	assert.Equal(t, schema.Grounded, machine.State())
}

func TestLandingReanchorsAnkleBaseline(t *testing.T) {
	params := testParams()
	geo := GeometryFromParams(params)
	tracker := NewReferencePoseTracker(geo, params.Contact, params.Displacement)
	machine := NewFlightStateMachine(params, tracker, NewHeightEstimator(params.Unit))

	frames := framesFromAnkles(0.5, 0.4, 0.52, 0.45, 0.52)
	_, _, _ = tracker.Update(frames[0])

	for _, f := range frames[1:3] {
		_, err := machine.Step(f)
		require.NoError(t, err)
	}
	ankle, _ := tracker.AnkleBaseline()
	assert.Equal(t, 2, ankle.FrameIndex)
	assert.Equal(t, 0.52, ankle.Landmarks[schema.LeftAnkle].Y)

	// 0.52 - 0.45 clears the take-off threshold only against the new baseline
	_, err := machine.Step(frames[3])
	require.NoError(t, err)
	assert.Equal(t, schema.Airborne, machine.State())

	shoulder, _ := tracker.ShoulderBaseline()
	assert.Equal(t, 0, shoulder.FrameIndex)
}

func TestDiscardedCycle(t *testing.T) {
	frames := framesFromAnkles(0.5, 0.4, 0.5)
	same := 1.0
	frames[1].Timestamp = &same
	frames[2].Timestamp = &same

	machine, events, errs := runMachine(t, testParams(), frames)
	assert.Empty(t, events)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDiscardedCycle)
	assert.Equal(t, schema.Grounded, machine.State())
	assert.Zero(t, machine.takeOffTime)

	// The ankle baseline is not moved by a discarded cycle
	ankle, _ := machine.tracker.AnkleBaseline()
	assert.Equal(t, 0, ankle.FrameIndex)
}

func TestGuardedTransitions(t *testing.T) {
	params := testParams()
	tracker := NewReferencePoseTracker(GeometryFromParams(params), params.Contact, params.Displacement)
	machine := NewFlightStateMachine(params, tracker, NewHeightEstimator(params.Unit))

	_, err := machine.land(standingFrame(1, 0.5))
	assert.ErrorIs(t, err, schema.ErrInvalidTransition)

	require.NoError(t, machine.takeOff(standingFrame(1, 0.4)))
	assert.ErrorIs(t, machine.takeOff(standingFrame(2, 0.4)), schema.ErrInvalidTransition)
	assert.Equal(t, schema.Airborne, machine.State())
	assert.Equal(t, 1, machine.takeOffFrame)
}

func TestApexTracksDisplacementWhileAirborne(t *testing.T) {
	params := testParams()
	tracker := NewReferencePoseTracker(GeometryFromParams(params), params.Contact, params.Displacement)
	machine := NewFlightStateMachine(params, tracker, NewHeightEstimator(params.Unit))
	_, _, _ = tracker.Update(standingFrame(0, 0.5))

	machine.observeDisplacement(99) // grounded, ignored
	_, _ = machine.Step(standingFrame(1, 0.4))
	machine.observeDisplacement(5)
	machine.observeDisplacement(12)
	machine.observeDisplacement(7)
	event, err := machine.Step(standingFrame(2, 0.5))
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, 12.0, event.DisplacementApex)
}
