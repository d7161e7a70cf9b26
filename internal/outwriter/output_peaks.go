package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PeaksResult is the standalone output of peak analysis over a trace.
type PeaksResult struct {
	Source  string        `json:"source,omitempty"`
	Unit    string        `json:"unit,omitempty"`
	Samples int           `json:"samples"`
	Peaks   []schema.Peak `json:"peaks"`
}

// WritePeaksResults outputs peaks, dispatching based on the output format configured.
func WritePeaksResults(result PeaksResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeaksCSV(w, result.Peaks, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for peaks")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "%d peaks in %d samples\n", len(result.Peaks), result.Samples); err != nil {
				return err
			}
			if len(result.Peaks) == 0 {
				return nil
			}
			return writePeaksTable(w, result.Peaks, result.Unit, fmtFloat)
		}, "Wrote table")
	}
}

func writePeaksCSV(w io.Writer, peaks []schema.Peak, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, []string{"index", "frame", "time", "value"}, func(cw *csv.Writer) error {
		for _, p := range peaks {
			rec := []string{
				fmt.Sprintf(intFmt, p.Index),
				fmt.Sprintf(intFmt, p.FrameIndex),
				fmtFloat(p.Time),
				fmtFloat(p.Value),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writePeaksTable renders one row per peak.
func writePeaksTable(w io.Writer, peaks []schema.Peak, unit string, fmtFloat func(float64) string) error {
	valueHeader := "Height"
	if unit != "" {
		valueHeader += " (" + unit + ")"
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Peak", "Index", "Frame", "Time (s)", valueHeader})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(peaks))
	for i, p := range peaks {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.Index),
			strconv.Itoa(p.FrameIndex),
			fmtFloat(p.Time),
			fmtFloat(p.Value),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
