package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/vertimeter/schema"
)

// TraceData is a height trace read back from disk.
type TraceData struct {
	Unit    string
	HasTime bool
	Points  []schema.TracePoint
}

// traceHeader returns the trace CSV header for unit.
func traceHeader(unit schema.LengthUnit) []string {
	return []string{"Time (s)", fmt.Sprintf("Height (%s)", unit)}
}

// WriteTraceFile writes the valid trace points to path as a two-column CSV.
func WriteTraceFile(path string, trace []schema.TracePoint, unit schema.LengthUnit) error {
	if path == "" {
		return errors.New("trace file path is empty")
	}
	return writeWithFile(path, func(w io.Writer) error {
		return WriteTraceCSV(w, trace, unit)
	}, "Wrote trace")
}

// WriteTraceCSV writes `Time (s),Height (<unit>)` rows for the valid trace points.
func WriteTraceCSV(w io.Writer, trace []schema.TracePoint, unit schema.LengthUnit) error {
	return writeCSVWithHeader(w, traceHeader(unit), func(cw *csv.Writer) error {
		for _, p := range trace {
			if !p.Valid {
				continue
			}
			rec := []string{
				strconv.FormatFloat(p.Time, 'f', -1, 64),
				strconv.FormatFloat(p.Height, 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadTraceCSV reads a trace written by WriteTraceCSV, or a plain list with one value per line.
// A header row is optional; when present its height column names the unit.
func ReadTraceCSV(r io.Reader) (TraceData, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var data TraceData
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return data, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}

		valueCol := len(rec) - 1
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			if line == 1 {
				data.Unit = unitFromHeader(rec[valueCol])
				continue
			}
			return data, fmt.Errorf("line %d: invalid height %q", line, rec[valueCol])
		}

		p := schema.TracePoint{FrameIndex: len(data.Points), Height: value, Valid: true}
		if len(rec) > 1 {
			t, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
			if err != nil {
				return data, fmt.Errorf("line %d: invalid time %q", line, rec[0])
			}
			p.Time = t
			data.HasTime = true
		}
		data.Points = append(data.Points, p)
	}
	return data, nil
}

// unitFromHeader extracts "cm" from "Height (cm)".
func unitFromHeader(col string) string {
	open := strings.LastIndex(col, "(")
	end := strings.LastIndex(col, ")")
	if open < 0 || end <= open {
		return ""
	}
	return strings.TrimSpace(col[open+1 : end])
}
