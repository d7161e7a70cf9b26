package landmarks

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/vertimeter/schema"
)

// CSVHeader is the long format understood by CSVReader: one row per landmark.
var CSVHeader = []string{"frame", "timestamp", "width", "height", "landmark", "x", "y", "visibility"}

// CSVReader groups consecutive rows sharing a frame number into one PoseFrame.
// Optional columns (timestamp, visibility, width, height) may be absent or empty.
type CSVReader struct {
	closer  io.Closer
	reader  *csv.Reader
	columns map[string]int
	pending []string
	line    int
	done    bool
}

// NewCSVReader reads the header from r and returns a reader positioned at the first row.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	closer, _ := r.(io.Closer)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"frame", "landmark", "x", "y"} {
		if _, ok := columns[required]; !ok {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, fmt.Errorf("CSV header missing %q column", required)
		}
	}
	return &CSVReader{closer: closer, reader: cr, columns: columns, line: 1}, nil
}

func (r *CSVReader) field(row []string, name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (r *CSVReader) read() ([]string, error) {
	if r.pending != nil {
		row := r.pending
		r.pending = nil
		return row, nil
	}
	row, err := r.reader.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	return row, nil
}

// Next returns the next frame.
func (r *CSVReader) Next(ctx context.Context) (schema.PoseFrame, error) {
	if err := ctx.Err(); err != nil {
		return schema.PoseFrame{}, err
	}
	if r.done {
		return schema.PoseFrame{}, io.EOF
	}

	var frame schema.PoseFrame
	started := false
	for {
		row, err := r.read()
		if errors.Is(err, io.EOF) {
			r.done = true
			if !started {
				return schema.PoseFrame{}, io.EOF
			}
			return frame, nil
		}
		if err != nil {
			return schema.PoseFrame{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		idx, err := strconv.Atoi(r.field(row, "frame"))
		if err != nil {
			return schema.PoseFrame{}, fmt.Errorf("line %d: invalid frame: %w", r.line, err)
		}
		if started && idx != frame.Index {
			r.pending = row
			return frame, nil
		}
		if !started {
			frame = schema.PoseFrame{Index: idx, Landmarks: make(map[schema.LandmarkName]schema.Landmark)}
			if err := r.frameHeader(row, &frame); err != nil {
				return schema.PoseFrame{}, err
			}
			started = true
		}

		name, l, err := r.landmark(row)
		if err != nil {
			return schema.PoseFrame{}, err
		}
		frame.Landmarks[name] = l
	}
}

func (r *CSVReader) frameHeader(row []string, frame *schema.PoseFrame) error {
	if s := r.field(row, "timestamp"); s != "" {
		ts, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid timestamp: %w", r.line, err)
		}
		frame.Timestamp = &ts
	}
	for col, dst := range map[string]*int{"width": &frame.Width, "height": &frame.Height} {
		if s := r.field(row, col); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("line %d: invalid %s: %w", r.line, col, err)
			}
			*dst = v
		}
	}
	return nil
}

func (r *CSVReader) landmark(row []string) (schema.LandmarkName, schema.Landmark, error) {
	name := NormalizeName(r.field(row, "landmark"))
	if name == "" {
		return "", schema.Landmark{}, fmt.Errorf("line %d: empty landmark name", r.line)
	}
	x, err := strconv.ParseFloat(r.field(row, "x"), 64)
	if err != nil {
		return "", schema.Landmark{}, fmt.Errorf("line %d: invalid x: %w", r.line, err)
	}
	y, err := strconv.ParseFloat(r.field(row, "y"), 64)
	if err != nil {
		return "", schema.Landmark{}, fmt.Errorf("line %d: invalid y: %w", r.line, err)
	}
	l := schema.Landmark{X: x, Y: y}
	if s := r.field(row, "visibility"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", schema.Landmark{}, fmt.Errorf("line %d: invalid visibility: %w", r.line, err)
		}
		l.Visibility = &v
	}
	return name, l, nil
}

// Close closes the underlying reader.
func (r *CSVReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// WriteCSV writes frames in the long format, landmarks sorted by name within a frame.
func WriteCSV(w io.Writer, frames []schema.PoseFrame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, f := range frames {
		ts, width, height := "", "", ""
		if f.Timestamp != nil {
			ts = strconv.FormatFloat(*f.Timestamp, 'f', -1, 64)
		}
		if f.Width > 0 {
			width = strconv.Itoa(f.Width)
		}
		if f.Height > 0 {
			height = strconv.Itoa(f.Height)
		}
		for _, name := range sortedNames(f) {
			l := f.Landmarks[name]
			vis := ""
			if l.Visibility != nil {
				vis = strconv.FormatFloat(*l.Visibility, 'f', -1, 64)
			}
			row := []string{
				strconv.Itoa(f.Index),
				ts,
				width,
				height,
				string(name),
				strconv.FormatFloat(l.X, 'f', -1, 64),
				strconv.FormatFloat(l.Y, 'f', -1, 64),
				vis,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
