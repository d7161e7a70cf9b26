package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/vertimeter/internal/parquet"
	"github.com/huangsam/vertimeter/schema"
)

// historyReader is the read side of the history store used by exports.
type historyReader interface {
	GetAllSessionRuns() ([]schema.SessionRunRecord, error)
	GetAllJumpEvents() ([]schema.JumpEventRecord, error)
}

// ExecuteHistoryExport writes the session history to two Parquet files
// named after outputFile.
func ExecuteHistoryExport(w io.Writer, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not initialized")
	}
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no session history found to export")
	}
	reader, ok := store.(historyReader)
	if !ok {
		return fmt.Errorf("history store %T does not support export", store)
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total session runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total jump events: %d\n", status.TableSizes[jumpEventsTable])

	runsFile, eventsFile, err := ExportHistory(reader, outputFile)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Exported session runs to: %s\n", runsFile)
	_, _ = fmt.Fprintf(w, "Exported jump events to: %s\n", eventsFile)
	return nil
}

// ExportHistory writes every run and event held by reader and returns the file names.
func ExportHistory(reader historyReader, outputFile string) (string, string, error) {
	runs, err := reader.GetAllSessionRuns()
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve session runs: %w", err)
	}
	events, err := reader.GetAllJumpEvents()
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve jump events: %w", err)
	}

	runsFile := outputFile + ".session_runs.parquet"
	if err := parquet.WriteSessionRunsParquet(parquet.ConvertSessionRunRecords(runs), runsFile); err != nil {
		return "", "", fmt.Errorf("failed to write session runs: %w", err)
	}
	eventsFile := outputFile + ".jump_events.parquet"
	if err := parquet.WriteJumpEventsParquet(parquet.ConvertJumpEventRecords(events), eventsFile); err != nil {
		return "", "", fmt.Errorf("failed to write jump events: %w", err)
	}
	return runsFile, eventsFile, nil
}
