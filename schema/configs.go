package schema

// Default session parameters.
const (
	DefaultKnownHeight      = 170.0 // centimeters
	DefaultFrameRate        = 30.0
	DefaultTakeOffThreshold = 0.05
	DefaultLandingThreshold = 0.03
	DefaultFrameWidth       = 720
	DefaultFrameHeight      = 1280
	DefaultMinVisibility    = 0.5
	DefaultBodyInFrameHold  = 2.0 // seconds

	// DefaultHeightCorrection compensates for the nose sitting below the crown
	// and the ankle sitting above the floor.
	DefaultHeightCorrection = 2.53
)

// SessionParams holds everything the engine needs to run one session.
type SessionParams struct {
	KnownHeight        float64          `json:"known_height"`
	Unit               LengthUnit       `json:"unit"`
	FrameRate          float64          `json:"frame_rate"`
	TakeOffThreshold   float64          `json:"take_off_threshold"`
	LandingThreshold   float64          `json:"landing_threshold"`
	Trigger            TriggerMode      `json:"trigger"`
	Displacement       DisplacementMode `json:"displacement"`
	Contact            ContactPoint     `json:"contact"`
	TracePolicy        TracePolicy      `json:"trace_policy"`
	FrameWidth         int              `json:"frame_width"`
	FrameHeight        int              `json:"frame_height"`
	MinVisibility      float64          `json:"min_visibility"`
	HeightCorrection   float64          `json:"height_correction"`
	RequireBodyInFrame bool             `json:"require_body_in_frame"`
	BodyInFrameHold    float64          `json:"body_in_frame_hold"`
	MergePlateaus      bool             `json:"merge_plateaus"`
	PeakTolerance      float64          `json:"peak_tolerance"`
}

// DefaultSessionParams returns the parameters used when nothing is configured.
func DefaultSessionParams() SessionParams {
	return SessionParams{
		KnownHeight:      DefaultKnownHeight,
		Unit:             Centimeters,
		FrameRate:        DefaultFrameRate,
		TakeOffThreshold: DefaultTakeOffThreshold,
		LandingThreshold: DefaultLandingThreshold,
		Trigger:          BothFeet,
		Displacement:     SignedDisplacement,
		Contact:          AnkleContact,
		TracePolicy:      DisplacementTrace,
		FrameWidth:       DefaultFrameWidth,
		FrameHeight:      DefaultFrameHeight,
		MinVisibility:    DefaultMinVisibility,
		HeightCorrection: DefaultHeightCorrection,
		BodyInFrameHold:  DefaultBodyInFrameHold,
	}
}

// ToMap flattens the params for storage as run metadata.
func (p SessionParams) ToMap() map[string]any {
	return map[string]any{
		"known_height":          p.KnownHeight,
		"unit":                  string(p.Unit),
		"frame_rate":            p.FrameRate,
		"take_off_threshold":    p.TakeOffThreshold,
		"landing_threshold":     p.LandingThreshold,
		"trigger":               string(p.Trigger),
		"displacement":          string(p.Displacement),
		"contact":               string(p.Contact),
		"trace_policy":          string(p.TracePolicy),
		"frame_width":           p.FrameWidth,
		"frame_height":          p.FrameHeight,
		"min_visibility":        p.MinVisibility,
		"height_correction":     p.HeightCorrection,
		"require_body_in_frame": p.RequireBodyInFrame,
		"body_in_frame_hold":    p.BodyInFrameHold,
		"merge_plateaus":        p.MergePlateaus,
		"peak_tolerance":        p.PeakTolerance,
	}
}
