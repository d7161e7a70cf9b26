package landmarks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/huangsam/vertimeter/schema"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 << 20

// jsonlFrame mirrors schema.PoseFrame with an optional frame number.
type jsonlFrame struct {
	Frame     *int                       `json:"frame"`
	Timestamp *float64                   `json:"timestamp"`
	Width     int                        `json:"width"`
	Height    int                        `json:"height"`
	Landmarks map[string]schema.Landmark `json:"landmarks"`
}

// JSONLReader reads one PoseFrame per line. Blank lines are skipped and a missing
// frame number defaults to the record's position in the stream.
type JSONLReader struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
	count   int
}

// NewJSONLReader wraps r. If r is an io.Closer it is closed by Close.
func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	closer, _ := r.(io.Closer)
	return &JSONLReader{closer: closer, scanner: scanner}
}

// Next decodes the next frame.
func (r *JSONLReader) Next(ctx context.Context) (schema.PoseFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return schema.PoseFrame{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return schema.PoseFrame{}, fmt.Errorf("line %d: %w", r.line+1, err)
			}
			return schema.PoseFrame{}, io.EOF
		}
		r.line++
		raw := r.scanner.Bytes()
		if len(trimSpace(raw)) == 0 {
			continue
		}

		var rec jsonlFrame
		if err := json.Unmarshal(raw, &rec); err != nil {
			return schema.PoseFrame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		frame := schema.PoseFrame{
			Index:     r.count,
			Timestamp: rec.Timestamp,
			Width:     rec.Width,
			Height:    rec.Height,
			Landmarks: make(map[schema.LandmarkName]schema.Landmark, len(rec.Landmarks)),
		}
		if rec.Frame != nil {
			frame.Index = *rec.Frame
		}
		for name, l := range rec.Landmarks {
			frame.Landmarks[NormalizeName(name)] = l
		}
		r.count++
		return frame, nil
	}
}

// Close closes the underlying reader.
func (r *JSONLReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == ' ' || b[start] == '\t' || b[start] == '\r') {
		start++
	}
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\r') {
		end--
	}
	return b[start:end]
}

// WriteJSONL writes frames as JSON lines.
func WriteJSONL(w io.Writer, frames []schema.PoseFrame) error {
	enc := json.NewEncoder(w)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}
