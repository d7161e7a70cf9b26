package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteCalibrationResult outputs a calibration, dispatching based on the output format configured.
func WriteCalibrationResult(result schema.CalibrationResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	rows := calibrationRows(result, fmtFloat)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(rows)
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for calibration")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Field", "Value"})
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// calibrationRows lists the calibration fields in display order.
func calibrationRows(r schema.CalibrationResult, fmtFloat func(float64) string) [][]string {
	unit := string(r.Unit)
	return [][]string{
		{"frame", strconv.Itoa(r.FrameIndex)},
		{"known_height_" + unit, fmtFloat(r.KnownHeight)},
		{"ankle_spread_px", fmtFloat(r.AnkleSpread)},
		{"hypotenuse_px", fmtFloat(r.Hypotenuse)},
		{"height_px", fmtFloat(r.HeightPixels)},
		{"scale_factor_" + unit + "_per_px", strconv.FormatFloat(r.ScaleFactor, 'g', 8, 64)},
	}
}
