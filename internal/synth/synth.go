// Package synth generates pose frame streams of an athlete performing standing vertical jumps.
package synth

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/huangsam/vertimeter/schema"
)

// MaxFrames bounds the length of a generated session.
const MaxFrames = 1_000_000

// Config describes a synthetic session.
type Config struct {
	FrameRate  float64 `json:"frame_rate"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Jumps      int     `json:"jumps"`
	LeadIn     int     `json:"lead_in"`     // grounded frames before, between and after jumps
	FlightTime float64 `json:"flight_time"` // seconds from leaving the ground to touching it again
	ApexRise   float64 `json:"apex_rise"`   // normalized rise of every landmark at the apex
	Jitter     float64 `json:"jitter"`      // max normalized noise per coordinate
	Seed       uint64  `json:"seed"`
	NoseY      float64 `json:"nose_y"`
	AnkleY     float64 `json:"ankle_y"`
}

// DefaultConfig returns a three jump session that the default session params detect.
func DefaultConfig() Config {
	return Config{
		FrameRate:  schema.DefaultFrameRate,
		Width:      schema.DefaultFrameWidth,
		Height:     schema.DefaultFrameHeight,
		Jumps:      3,
		LeadIn:     15,
		FlightTime: 0.4,
		ApexRise:   0.12,
		Seed:       1,
		NoseY:      0.15,
		AnkleY:     0.85,
	}
}

// Validate reports a configuration that cannot produce a plausible stream.
func (c Config) Validate() error {
	switch {
	case !(c.FrameRate > 0) || math.IsInf(c.FrameRate, 0):
		return fmt.Errorf("frame rate must be positive (received %v)", c.FrameRate)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("frame size must be positive (received %dx%d)", c.Width, c.Height)
	case c.Jumps < 0:
		return fmt.Errorf("jumps must be >= 0 (received %d)", c.Jumps)
	case c.LeadIn < 1:
		return fmt.Errorf("lead-in must be at least 1 frame (received %d)", c.LeadIn)
	case !(c.FlightTime > 0) || math.IsInf(c.FlightTime, 0):
		return fmt.Errorf("flight time must be positive (received %v)", c.FlightTime)
	case c.Jitter < 0:
		return fmt.Errorf("jitter must be >= 0 (received %v)", c.Jitter)
	case !(c.NoseY >= 0 && c.NoseY < c.AnkleY && c.AnkleY <= 1):
		return fmt.Errorf("expected 0 <= nose-y < ankle-y <= 1 (received %v, %v)", c.NoseY, c.AnkleY)
	case !(c.ApexRise > 0 && c.ApexRise < c.NoseY+0.1):
		return fmt.Errorf("apex rise must be positive and keep the shoulders in frame (received %v)", c.ApexRise)
	}
	// Float math so huge counts cannot wrap before the comparison.
	flight := max(math.Round(c.FlightTime*c.FrameRate), 2)
	total := float64(c.LeadIn)*(float64(c.Jumps)+1) + float64(c.Jumps)*(flight-1)
	if total > MaxFrames {
		return fmt.Errorf("session would have %.0f frames, more than the %d allowed", total, MaxFrames)
	}
	return nil
}

// FlightFrames is the number of frame intervals spent in the air.
func (c Config) FlightFrames() int {
	return max(int(math.Round(c.FlightTime*c.FrameRate)), 2)
}

// Rise returns the normalized rise at step j of a flight of n frame intervals.
// The profile is a parabola that is zero at both ends and peaks at ApexRise.
func (c Config) Rise(j, n int) float64 {
	if j <= 0 || j >= n {
		return 0
	}
	return 4 * c.ApexRise * float64(j*(n-j)) / float64(n*n)
}

// Generate returns every frame of the session. cfg must pass Validate.
func Generate(cfg Config) []schema.PoseFrame {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	n := cfg.FlightFrames()
	frames := make([]schema.PoseFrame, 0, cfg.LeadIn*(cfg.Jumps+1)+cfg.Jumps*n)

	add := func(rise float64) {
		frames = append(frames, cfg.frame(len(frames), rise, rng))
	}
	for range cfg.LeadIn {
		add(0)
	}
	for range cfg.Jumps {
		for j := 1; j < n; j++ {
			add(cfg.Rise(j, n))
		}
		for range cfg.LeadIn {
			add(0)
		}
	}
	return frames
}

// frame places a standing figure shifted up by rise.
func (c Config) frame(index int, rise float64, rng *rand.Rand) schema.PoseFrame {
	visibility := 0.99
	point := func(x, y float64) schema.Landmark {
		if c.Jitter > 0 {
			x += (rng.Float64()*2 - 1) * c.Jitter
			y += (rng.Float64()*2 - 1) * c.Jitter
		}
		return schema.Landmark{X: x, Y: y - rise, Visibility: &visibility}
	}
	shoulderY := c.NoseY + 0.1
	return schema.PoseFrame{
		Index:  index,
		Width:  c.Width,
		Height: c.Height,
		Landmarks: map[schema.LandmarkName]schema.Landmark{
			schema.Nose:           point(0.5, c.NoseY),
			schema.LeftShoulder:   point(0.45, shoulderY),
			schema.RightShoulder:  point(0.55, shoulderY),
			schema.LeftAnkle:      point(0.47, c.AnkleY),
			schema.RightAnkle:     point(0.53, c.AnkleY),
			schema.LeftFootIndex:  point(0.46, c.AnkleY+0.02),
			schema.RightFootIndex: point(0.54, c.AnkleY+0.02),
		},
	}
}

// Source replays generated frames one at a time.
type Source struct {
	frames []schema.PoseFrame
	pos    int
}

// NewSource generates the session described by cfg.
func NewSource(cfg Config) *Source {
	return &Source{frames: Generate(cfg)}
}

// Next returns the next frame, or io.EOF once all frames were returned.
func (s *Source) Next(ctx context.Context) (schema.PoseFrame, error) {
	if err := ctx.Err(); err != nil {
		return schema.PoseFrame{}, err
	}
	if s.pos >= len(s.frames) {
		return schema.PoseFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// Len returns the total number of frames.
func (s *Source) Len() int { return len(s.frames) }
