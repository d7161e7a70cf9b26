package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
)

// Notifier receives soft conditions: calibration failures, skipped frames and discarded cycles.
type Notifier func(err error)

// Option configures a Session.
type Option func(*Session)

// WithNotifier routes soft conditions to fn.
func WithNotifier(fn Notifier) Option {
	return func(s *Session) { s.notify = fn }
}

// WithJumpHandler calls fn for every JumpEvent as soon as it completes.
func WithJumpHandler(fn func(schema.JumpEvent)) Option {
	return func(s *Session) { s.onJump = fn }
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithSource records where the frames came from.
func WithSource(source string) Option {
	return func(s *Session) { s.source = source }
}

// Session owns all mutable state of one measurement run. It is not safe for
// concurrent use; frames must be fed one at a time, in order.
type Session struct {
	id     string
	source string
	params schema.SessionParams
	geo    Geometry

	tracker   *ReferencePoseTracker
	estimator *HeightEstimator
	machine   *FlightStateMachine
	gate      *ReadinessGate

	calibration *schema.CalibrationResult
	trace       []schema.TracePoint
	events      []schema.JumpEvent
	lastFlight  float64
	hasFlight   bool

	framesProcessed     int
	framesSkipped       int
	calibrationFailures int
	discardedCycles     int

	notify Notifier
	onJump func(schema.JumpEvent)
}

// NewSession validates params and creates a session in its initial state.
func NewSession(params schema.SessionParams, opts ...Option) (*Session, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	geo := GeometryFromParams(params)
	tracker := NewReferencePoseTracker(geo, params.Contact, params.Displacement)
	estimator := NewHeightEstimator(params.Unit)
	s := &Session{
		id:        uuid.NewString(),
		params:    params,
		geo:       geo,
		tracker:   tracker,
		estimator: estimator,
		machine:   NewFlightStateMachine(params, tracker, estimator),
		gate:      NewReadinessGate(params),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// ProcessFrame runs one frame through calibration, baseline tracking, the state
// machine and the estimators, then appends to the trace. It never fails the
// session: the returned error joins the soft conditions raised by this frame,
// each of which was already passed to the notifier.
func (s *Session) ProcessFrame(frame schema.PoseFrame) error {
	s.framesProcessed++
	var soft []error
	report := func(err error) {
		soft = append(soft, err)
		if s.notify != nil {
			s.notify(err)
		}
	}

	point := schema.TracePoint{FrameIndex: frame.Index, Time: frameTime(frame, s.params.FrameRate)}
	defer func() {
		point.State = s.machine.State()
		s.trace = append(s.trace, point)
	}()

	ready := s.gate.Observe(frame)

	if s.calibration == nil && ready {
		s.calibrate(frame, report)
	}

	if !s.tracker.Ready() {
		if !ready {
			s.framesSkipped++
			return errors.Join(soft...)
		}
		if _, _, err := s.tracker.Update(frame); err != nil {
			s.framesSkipped++
			report(err)
		}
		return errors.Join(soft...)
	}

	px, ok, err := s.tracker.Update(frame)
	if err != nil {
		report(err)
	}
	var dispHeight float64
	var haveDisp bool
	if ok {
		dispHeight, haveDisp = s.estimator.FromDisplacement(px)
	}

	if haveDisp {
		s.machine.observeDisplacement(dispHeight)
	}
	event, err := s.machine.Step(frame)
	switch {
	case errors.Is(err, ErrDiscardedCycle):
		s.discardedCycles++
		report(err)
	case err != nil:
		s.framesSkipped++
		report(err)
	case event != nil:
		s.events = append(s.events, *event)
		s.lastFlight, s.hasFlight = event.HeightEstimate, true
		if s.onJump != nil {
			s.onJump(*event)
		}
	}
	if haveDisp {
		s.machine.observeDisplacement(dispHeight)
	}

	switch s.params.TracePolicy {
	case schema.FlightTimeTrace:
		point.Height, point.Valid = s.lastFlight, s.hasFlight
	default:
		point.Height, point.Valid = dispHeight, haveDisp
	}
	return errors.Join(soft...)
}

func (s *Session) calibrate(frame schema.PoseFrame, report func(error)) {
	result, err := Calibrate(frame, s.params.KnownHeight, s.geo)
	if err == nil {
		err = s.estimator.SetScale(result.ScaleFactor)
	}
	if err != nil {
		s.calibrationFailures++
		report(err)
		return
	}
	s.calibration = &result
}

// Run pulls frames from src until it is exhausted or ctx is done, then returns the
// session summary. Cancellation is checked once per frame and is not an error.
// A failing source returns the summary so far together with the read error.
func (s *Session) Run(ctx context.Context, src contract.FrameSource) (schema.SessionSummary, error) {
	for {
		if ctx.Err() != nil {
			return s.Summary(true), nil
		}
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return s.Summary(false), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return s.Summary(true), nil
			}
			return s.Summary(false), fmt.Errorf("read frame %d: %w", s.framesProcessed, err)
		}
		_ = s.ProcessFrame(frame)
	}
}

// Summary runs the peak pass over the trace accumulated so far and returns the session summary.
// An in-flight cycle is not turned into an event.
func (s *Session) Summary(cancelled bool) schema.SessionSummary {
	summary := schema.SessionSummary{
		SessionID:             s.id,
		Source:                s.source,
		Params:                s.params,
		Unit:                  s.params.Unit,
		MaxHeight:             s.estimator.Max(),
		MaxDisplacementHeight: s.estimator.MaxDisplacement(),
		MaxFlightTimeHeight:   s.estimator.MaxFlightTime(),
		Events:                s.Events(),
		Peaks:                 TracePeaks(s.trace, PeakOptions{Tolerance: s.params.PeakTolerance, MergePlateaus: s.params.MergePlateaus}),
		Stats:                 ComputeStats(s.events),
		FramesProcessed:       s.framesProcessed,
		FramesSkipped:         s.framesSkipped,
		CalibrationFailures:   s.calibrationFailures,
		DiscardedCycles:       s.discardedCycles,
		Cancelled:             cancelled,
		Trace:                 s.Trace(),
	}
	if s.calibration != nil {
		c := *s.calibration
		summary.Calibration = &c
	}
	return summary
}

// MaxHeight returns the running maximum height.
func (s *Session) MaxHeight() float64 { return s.estimator.Max() }

// State returns the current flight state.
func (s *Session) State() schema.FlightState { return s.machine.State() }

// Calibration returns the calibration result once available.
func (s *Session) Calibration() (schema.CalibrationResult, bool) {
	if s.calibration == nil {
		return schema.CalibrationResult{}, false
	}
	return *s.calibration, true
}

// Trace returns a copy of the per-frame trace.
func (s *Session) Trace() []schema.TracePoint { return slices.Clone(s.trace) }

// Events returns a copy of the completed jump events.
func (s *Session) Events() []schema.JumpEvent {
	if s.events == nil {
		return []schema.JumpEvent{}
	}
	return slices.Clone(s.events)
}
