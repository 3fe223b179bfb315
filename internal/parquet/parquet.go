// Package parquet provides data structures and functions for exporting defectset
// runs and dataset rows to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/defectset/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"
)

// AnalysisRun represents a single dataset build with its summary counts.
// This struct maps to the defectset_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// Project is the project name the dataset was built for
	Project string `parquet:"project,snappy,dict"`

	// StartTime is when the build began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the build completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the build in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFiles is the number of dataset rows emitted
	TotalFiles int32 `parquet:"total_files,snappy"`

	// BuggyFiles is the number of rows labeled buggy
	BuggyFiles int32 `parquet:"buggy_files,snappy"`

	// Cutoff is the date of the release closing the training window
	Cutoff time.Time `parquet:"cutoff,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// DatasetRow is one labeled file row of a run.
// This struct maps to the defectset_dataset_rows database table.
type DatasetRow struct {
	AnalysisID int64   `parquet:"analysis_id,snappy"`
	Project    string  `parquet:"project,snappy,dict"`
	Version    string  `parquet:"version,snappy,dict"`
	FilePath   string  `parquet:"file_path,snappy"`
	LOCAdded   int64   `parquet:"loc_added,snappy"`
	LOCDeleted int64   `parquet:"loc_deleted,snappy"`
	LOCTouched int64   `parquet:"loc_touched,snappy"`
	Churn      float64 `parquet:"churn,snappy"`
	NR         int32   `parquet:"nr,snappy"`
	NFix       int32   `parquet:"nfix,snappy"`
	NAuth      int32   `parquet:"nauth,snappy"`
	Buggy      string  `parquet:"buggy,snappy,dict"`
}

// FromRunRecords converts stored run records into their Parquet shape.
func FromRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	return lo.Map(records, func(r schema.AnalysisRunRecord, _ int) AnalysisRun {
		return AnalysisRun{
			AnalysisID:    r.AnalysisID,
			Project:       r.Project,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalFiles:    r.TotalFiles,
			BuggyFiles:    r.BuggyFiles,
			Cutoff:        r.Cutoff,
			ConfigParams:  r.ConfigParams,
		}
	})
}

// FromDatasetRowRecords converts stored dataset rows into their Parquet shape.
func FromDatasetRowRecords(records []schema.DatasetRowRecord) []DatasetRow {
	return lo.Map(records, func(r schema.DatasetRowRecord, _ int) DatasetRow {
		return fromDatasetRow(r.AnalysisID, r.DatasetRow)
	})
}

// FromDatasetRows converts freshly built rows, which do not belong to a stored run yet.
func FromDatasetRows(rows []schema.DatasetRow) []DatasetRow {
	return lo.Map(rows, func(r schema.DatasetRow, _ int) DatasetRow {
		return fromDatasetRow(0, r)
	})
}

func fromDatasetRow(id int64, r schema.DatasetRow) DatasetRow {
	return DatasetRow{
		AnalysisID: id,
		Project:    r.Project,
		Version:    r.Version,
		FilePath:   r.File,
		LOCAdded:   int64(r.LOCAdded),
		LOCDeleted: int64(r.LOCDeleted),
		LOCTouched: int64(r.LOCTouched),
		Churn:      r.Churn,
		NR:         int32(r.NR),
		NFix:       int32(r.NFix),
		NAuth:      int32(r.NAuth),
		Buggy:      r.BuggyLabel(),
	}
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteDatasetRowsParquet writes a slice of DatasetRow structs to a Parquet file.
func WriteDatasetRowsParquet(data []DatasetRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet derives the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		_ = file.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer, so its error matters.
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
