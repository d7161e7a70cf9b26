package schema

// Jump rating labels.
const (
	EliteRating   = "Elite"
	StrongRating  = "Strong"
	AverageRating = "Average"
	LowRating     = "Low"
)

// EnrichedJumpEvent adds presentation data to a JumpEvent.
type EnrichedJumpEvent struct {
	Label string `json:"label"`
	JumpEvent
}

// GetPlainLabel returns a rating for a jump height expressed in unit.
// Bands are defined in centimeters.
func GetPlainLabel(height float64, unit LengthUnit) string {
	cm := height / unit.PerMeter() * 100
	switch {
	case cm >= 60:
		return EliteRating
	case cm >= 45:
		return StrongRating
	case cm >= 30:
		return AverageRating
	default:
		return LowRating
	}
}

// EnrichEvents adds a rating label to each jump event.
func EnrichEvents(events []JumpEvent) []EnrichedJumpEvent {
	output := make([]EnrichedJumpEvent, len(events))
	for i, e := range events {
		output[i] = EnrichedJumpEvent{
			Label:     GetPlainLabel(e.HeightEstimate, e.Unit),
			JumpEvent: e,
		}
	}
	return output
}

// EnrichedSession is a session summary whose events carry rating labels.
type EnrichedSession struct {
	SessionSummary
	Events []EnrichedJumpEvent `json:"events"`
}

// EnrichSession labels every event of summary.
// The per-frame trace is only kept when includeTrace is set.
func EnrichSession(summary SessionSummary, includeTrace bool) EnrichedSession {
	if !includeTrace {
		summary.Trace = nil
	}
	return EnrichedSession{
		SessionSummary: summary,
		Events:         EnrichEvents(summary.Events),
	}
}
