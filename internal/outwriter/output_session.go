package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/parquet"
	"github.com/huangsam/vertimeter/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSessionResults outputs a session summary, dispatching based on the output format configured.
func WriteSessionResults(summary schema.SessionSummary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionJSON(w, summary, cfg.IncludeTrace)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionCSV(w, summary, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeSessionParquet(summary, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionTable(w, summary, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeSessionJSON writes the summary with a label on every event.
func writeSessionJSON(w io.Writer, summary schema.SessionSummary, includeTrace bool) error {
	return writeJSON(w, schema.EnrichSession(summary, includeTrace))
}

// writeSessionCSV writes one row per jump event.
func writeSessionCSV(w io.Writer, summary schema.SessionSummary, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"session_id",
		"sequence",
		"take_off_frame",
		"take_off_time",
		"landing_frame",
		"landing_time",
		"flight_time",
		"height",
		"displacement_apex",
		"unit",
		"label",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range schema.EnrichEvents(summary.Events) {
			rec := []string{
				summary.SessionID,
				fmt.Sprintf(intFmt, e.Sequence),
				fmt.Sprintf(intFmt, e.TakeOffFrame),
				fmtFloat(e.TakeOffTime),
				fmt.Sprintf(intFmt, e.LandingFrame),
				fmtFloat(e.LandingTime),
				fmtFloat(e.FlightTime),
				fmtFloat(e.HeightEstimate),
				fmtFloat(e.DisplacementApex),
				string(e.Unit),
				e.Label,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSessionParquet writes the jump events as Parquet rows. Run ID 0 marks rows
// that were never stored in the history database.
func writeSessionParquet(summary schema.SessionSummary, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if err := parquet.WriteJumpEventsParquet(parquet.ConvertJumpEvents(0, summary.Events), outputFile); err != nil {
		return err
	}
	contract.LogInfo("💾 Wrote Parquet to %s", outputFile)
	return nil
}

// writeSessionTable generates and writes the human-readable report.
func writeSessionTable(w io.Writer, summary schema.SessionSummary, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	unit := string(summary.Unit)

	if _, err := fmt.Fprintf(w, "Session %s\n", summary.SessionID); err != nil {
		return err
	}
	if summary.Source != "" {
		if _, err := fmt.Fprintf(w, "Source: %s\n", contract.TruncatePath(summary.Source, GetMaxSourceWidth(cfg))); err != nil {
			return err
		}
	}
	if c := summary.Calibration; c != nil {
		if _, err := fmt.Fprintf(w, "Calibrated on frame %d: %s %s/px (known height %s %s)\n",
			c.FrameIndex, strconv.FormatFloat(c.ScaleFactor, 'g', 6, 64), unit, fmtFloat(c.KnownHeight), unit); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, "Not calibrated: no frame had the nose and both ankles visible"); err != nil {
		return err
	}

	if len(summary.Events) > 0 {
		if err := writeEventsTable(w, summary.Events, fmtFloat); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, "No jumps detected"); err != nil {
		return err
	}

	if len(summary.Peaks) > 0 {
		if err := writePeaksTable(w, summary.Peaks, unit, fmtFloat); err != nil {
			return err
		}
	}

	stats := summary.Stats
	if _, err := fmt.Fprintf(w, "Max height: %s %s (displacement %s, flight time %s)\n",
		fmtFloat(summary.MaxHeight), unit, fmtFloat(summary.MaxDisplacementHeight), fmtFloat(summary.MaxFlightTimeHeight)); err != nil {
		return err
	}
	if stats.Count > 0 {
		if _, err := fmt.Fprintf(w, "Jumps: %d, best %s %s %s, mean %s ± %s %s, mean flight %s s\n",
			stats.Count, fmtFloat(stats.BestHeight), unit, contract.GetColorLabel(stats.BestHeight, summary.Unit),
			fmtFloat(stats.MeanHeight), fmtFloat(stats.StdDevHeight), unit, fmtFloat(stats.MeanFlightTime)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Frames: %d processed, %d skipped, %d calibration failures, %d discarded cycles\n",
		summary.FramesProcessed, summary.FramesSkipped, summary.CalibrationFailures, summary.DiscardedCycles); err != nil {
		return err
	}
	if summary.Cancelled {
		if _, err := fmt.Fprintln(w, "Session cancelled before the end of the stream"); err != nil {
			return err
		}
	}

	cached := ""
	if summary.Cached {
		cached = " (cached)"
	}
	_, err := fmt.Fprintf(w, "Session completed in %v%s. Cache backend: %s\n", duration, cached, cfg.CacheBackend)
	return err
}

// writeEventsTable renders one row per jump event.
func writeEventsTable(w io.Writer, events []schema.JumpEvent, fmtFloat func(float64) string) error {
	unit := string(events[0].Unit)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Take-off", "Landing", "Flight (s)", "Height (" + unit + ")", "Apex (" + unit + ")", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(events))
	for _, e := range events {
		data = append(data, []string{
			strconv.Itoa(e.Sequence),
			fmt.Sprintf("%d (%ss)", e.TakeOffFrame, fmtFloat(e.TakeOffTime)),
			fmt.Sprintf("%d (%ss)", e.LandingFrame, fmtFloat(e.LandingTime)),
			fmtFloat(e.FlightTime),
			fmtFloat(e.HeightEstimate),
			fmtFloat(e.DisplacementApex),
			contract.GetColorLabel(e.HeightEstimate, e.Unit),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
