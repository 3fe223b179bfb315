package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/defectset/schema"
)

// CommitWriter writes commit-metrics rows.
type CommitWriter struct {
	w    *csv.Writer
	rows int
}

// NewCommitWriter writes the header and returns a writer for the rows.
func NewCommitWriter(w io.Writer) (*CommitWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.CommitMetricsHeader); err != nil {
		return nil, err
	}
	return &CommitWriter{w: cw}, nil
}

// Write appends one row. Line is ignored.
func (c *CommitWriter) Write(r schema.RawCommitRow) error {
	c.rows++
	return c.w.Write([]string{r.CommitID, r.Date, r.Author, r.File, r.LOCAdded, r.LOCDeleted, r.TicketLinked})
}

// Rows returns the number of rows written so far.
func (c *CommitWriter) Rows() int {
	return c.rows
}

// Flush flushes buffered rows and reports any write error.
func (c *CommitWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// FormatFixFlag renders a fix flag the way the TicketLinked column expects.
func FormatFixFlag(isFix bool) string {
	return strconv.FormatBool(isFix)
}
