// Package schema has models, constants and error types for all parts of defectset.
package schema

import "time"

// Release is one entry of a project release timeline.
type Release struct {
	Name string    `json:"name"`
	ID   string    `json:"id,omitempty"` // Issue tracker version ID, optional
	Date time.Time `json:"date"`
}

// RawCommitRow is one line of the commit-metrics file before any parsing.
// Line is the 1-based line number in the source file, used for diagnostics.
type RawCommitRow struct {
	Line         int
	CommitID     string
	Date         string
	Author       string
	File         string
	LOCAdded     string
	LOCDeleted   string
	TicketLinked string
}

// CommitRecord is a parsed per-file change record consumed by the aggregator.
// IsFix is computed once per commit, so it is constant across the files of a commit.
type CommitRecord struct {
	CommitHash string
	Date       time.Time
	Author     string
	FilePath   string
	LOCAdded   int
	LOCDeleted int
	IsFix      bool
}

// DatasetRow is one labeled row of the output feature table.
type DatasetRow struct {
	Project    string  `json:"project"`
	Version    string  `json:"version"`
	File       string  `json:"file"`
	LOCAdded   int     `json:"loc_added"`
	LOCDeleted int     `json:"loc_deleted"`
	LOCTouched int     `json:"loc_touched"`
	Churn      float64 `json:"churn"`
	NR         int     `json:"nr"`
	NFix       int     `json:"nfix"`
	NAuth      int     `json:"nauth"`
	Buggy      bool    `json:"buggy"`
}

// BuggyLabel renders the buggy flag the way the dataset contract expects.
func (r DatasetRow) BuggyLabel() string {
	if r.Buggy {
		return BuggyYes
	}
	return BuggyNo
}

// Header rows of the files exchanged with the outside world.
var (
	CommitMetricsHeader = []string{"CommitID", "Date", "Author", "File", "LOC_Added", "LOC_Deleted", "TicketLinked"}
	ReleaseHeader       = []string{"Index", "VersionID", "Name", "Date"}
	TicketHeader        = []string{"TicketID"}
	DatasetHeader       = []string{"Project", "Version", "File", "LOC_Added", "LOC_Deleted", "LOC_Touched", "Churn", "NR", "NFix", "NAuth", "Buggy"}
)
