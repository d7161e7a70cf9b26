package landmarks

import (
	"slices"

	"github.com/huangsam/vertimeter/internal/parquet"
	"github.com/huangsam/vertimeter/schema"
)

// OpenParquet loads a landmark Parquet file written by WriteParquet.
func OpenParquet(path string) (*SliceSource, error) {
	rows, err := parquet.ReadLandmarksParquet(path)
	if err != nil {
		return nil, err
	}
	return NewSliceSource(parquet.LandmarkRowsToFrames(rows)), nil
}

// WriteParquet stores frames as one landmark per row.
func WriteParquet(path string, frames []schema.PoseFrame) error {
	return parquet.WriteLandmarksParquet(parquet.FramesToLandmarkRows(frames), path)
}

func sortedNames(f schema.PoseFrame) []schema.LandmarkName {
	names := make([]schema.LandmarkName, 0, len(f.Landmarks))
	for name := range f.Landmarks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
