// Package landmarks reads pose landmark streams from disk as frame sources.
package landmarks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/vertimeter/schema"
)

// Source is a frame source backed by a file.
type Source interface {
	Next(ctx context.Context) (schema.PoseFrame, error)
	Close() error
}

// mediapipeIndex maps MediaPipe Pose landmark indices to names.
var mediapipeIndex = map[int]schema.LandmarkName{
	0:  schema.Nose,
	11: schema.LeftShoulder,
	12: schema.RightShoulder,
	27: schema.LeftAnkle,
	28: schema.RightAnkle,
	31: schema.LeftFootIndex,
	32: schema.RightFootIndex,
}

// NormalizeName turns the spellings used by pose tools ("left ankle", "LEFT_ANKLE",
// "left-ankle" or a MediaPipe index such as "27") into a landmark name.
func NormalizeName(raw string) schema.LandmarkName {
	s := strings.TrimSpace(raw)
	if idx, err := strconv.Atoi(s); err == nil {
		if name, ok := mediapipeIndex[idx]; ok {
			return name
		}
	}
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return schema.LandmarkName(s)
}

// ResolveFormat picks the reader for path. Auto detection goes by file extension.
func ResolveFormat(path string, format schema.InputFormat) (schema.InputFormat, error) {
	if format != "" && format != schema.AutoInput {
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return schema.JSONLInput, nil
	case ".csv":
		return schema.CSVInput, nil
	case ".json":
		return schema.MediapipeInput, nil
	case ".parquet":
		return schema.ParquetInput, nil
	default:
		return "", fmt.Errorf("cannot detect landmark format of %q; use --input-format", path)
	}
}

// Open returns a frame source for the landmark file at path.
func Open(path string, format schema.InputFormat) (Source, error) {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	if resolved == schema.ParquetInput {
		return OpenParquet(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open landmark file: %w", err)
	}
	switch resolved {
	case schema.JSONLInput:
		return NewJSONLReader(file), nil
	case schema.CSVInput:
		return NewCSVReader(file)
	case schema.MediapipeInput:
		defer func() { _ = file.Close() }()
		frames, err := DecodeMediapipe(file)
		if err != nil {
			return nil, err
		}
		return NewSliceSource(frames), nil
	}
	_ = file.Close()
	return nil, fmt.Errorf("unsupported landmark format %q", resolved)
}

// WriteFile stores frames at path in the given format, resolving auto from the extension.
func WriteFile(path string, format schema.InputFormat, frames []schema.PoseFrame) error {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return err
	}
	if resolved == schema.ParquetInput {
		return WriteParquet(path, frames)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create landmark file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch resolved {
	case schema.JSONLInput:
		err = WriteJSONL(file, frames)
	case schema.CSVInput:
		err = WriteCSV(file, frames)
	case schema.MediapipeInput:
		err = EncodeMediapipe(file, frames)
	default:
		err = fmt.Errorf("unsupported landmark format %q", resolved)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// SliceSource replays frames held in memory.
type SliceSource struct {
	frames []schema.PoseFrame
	pos    int
}

// NewSliceSource returns a source over frames.
func NewSliceSource(frames []schema.PoseFrame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame, or io.EOF once every frame was returned.
func (s *SliceSource) Next(ctx context.Context) (schema.PoseFrame, error) {
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

// Close is a no-op.
func (s *SliceSource) Close() error { return nil }

// ReadAll drains src into a slice.
func ReadAll(ctx context.Context, src interface {
	Next(context.Context) (schema.PoseFrame, error)
}) ([]schema.PoseFrame, error) {
	var frames []schema.PoseFrame
	for {
		f, err := src.Next(ctx)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
