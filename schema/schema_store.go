package schema

import "time"

// AnalysisRunRecord represents a row from the defectset_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	Project       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalFiles    int32
	BuggyFiles    int32
	Cutoff        time.Time
	ConfigParams  *string
}

// DatasetRowRecord represents a row from the defectset_dataset_rows table.
type DatasetRowRecord struct {
	AnalysisID int64
	DatasetRow
}

// RunSummary is what a finished build reports to the analysis store and to the user.
type RunSummary struct {
	Project         string    `json:"project"`
	Releases        int       `json:"releases"`
	Cutoff          time.Time `json:"cutoff"`
	RecordsRead     int       `json:"records_read"`
	RecordsRetained int       `json:"records_retained"`
	RecordsExcluded int       `json:"records_excluded"`
	DateFallbacks   int       `json:"date_fallbacks"`
	BinaryFields    int       `json:"binary_fields"`
	Files           int       `json:"files"`
	BuggyFiles      int       `json:"buggy_files"`
}
