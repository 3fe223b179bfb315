package iocache

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/parquet"
)

// ExecuteAnalysisExport writes the stored runs and dataset rows of the global
// analysis store to two Parquet files named after outputFile.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile, os.Stdout)
}

// ExportAnalysis writes the runs and dataset rows of store to Parquet, reporting progress to w.
func ExportAnalysis(store contract.AnalysisStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not configured. Set --analysis-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	rows, err := store.GetAllDatasetRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve dataset rows: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.FromRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	rowsFile := outputFile + ".dataset_rows.parquet"
	if err := parquet.WriteDatasetRowsParquet(parquet.FromDatasetRowRecords(rows), rowsFile); err != nil {
		return fmt.Errorf("failed to write dataset rows: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d dataset rows to: %s\n", len(rows), rowsFile)
	return nil
}
