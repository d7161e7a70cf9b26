package landmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/huangsam/vertimeter/schema"
)

// mediapipePoint is one landmark as exported by MediaPipe Pose.
type mediapipePoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility"`
	Presence   *float64 `json:"presence"`
}

type mediapipeFrame struct {
	Timestamp *float64                  `json:"timestamp"`
	Mediapipe map[string]mediapipePoint `json:"mediapipe"`
}

type mediapipeDocument struct {
	Width  int                       `json:"width"`
	Height int                       `json:"height"`
	Frames map[string]mediapipeFrame `json:"frames"`
}

// DecodeMediapipe reads a whole MediaPipe pose document. Frames are keyed by their
// index and returned in ascending order. Landmark keys may be names ("left ankle")
// or MediaPipe indices ("27").
func DecodeMediapipe(r io.Reader) ([]schema.PoseFrame, error) {
	var doc mediapipeDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode MediaPipe document: %w", err)
	}

	frames := make([]schema.PoseFrame, 0, len(doc.Frames))
	for key, mf := range doc.Frames {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid frame key %q: %w", key, err)
		}
		frame := schema.PoseFrame{
			Index:     idx,
			Timestamp: mf.Timestamp,
			Width:     doc.Width,
			Height:    doc.Height,
			Landmarks: make(map[schema.LandmarkName]schema.Landmark, len(mf.Mediapipe)),
		}
		for name, p := range mf.Mediapipe {
			frame.Landmarks[NormalizeName(name)] = schema.Landmark{X: p.X, Y: p.Y, Visibility: p.Visibility}
		}
		frames = append(frames, frame)
	}
	slices.SortFunc(frames, func(a, b schema.PoseFrame) int { return a.Index - b.Index })
	return frames, nil
}

// EncodeMediapipe writes frames as one MediaPipe pose document. The document
// size comes from the first frame.
func EncodeMediapipe(w io.Writer, frames []schema.PoseFrame) error {
	doc := mediapipeDocument{Frames: make(map[string]mediapipeFrame, len(frames))}
	if len(frames) > 0 {
		doc.Width, doc.Height = frames[0].Width, frames[0].Height
	}
	for _, f := range frames {
		mf := mediapipeFrame{Timestamp: f.Timestamp, Mediapipe: make(map[string]mediapipePoint, len(f.Landmarks))}
		for name, l := range f.Landmarks {
			mf.Mediapipe[string(name)] = mediapipePoint{X: l.X, Y: l.Y, Visibility: l.Visibility}
		}
		doc.Frames[strconv.Itoa(f.Index)] = mf
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
