// Package csvio reads and writes the CSV files exchanged between extraction,
// the issue tracker fetch and the dataset build.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/defectset/schema"
)

// CommitReader streams commit-metrics rows. It implements agg.Source.
type CommitReader struct {
	r    *csv.Reader
	cols map[string]int
	need int
	line int
}

// NewCommitReader reads and validates the header of a commit-metrics file.
func NewCommitReader(r io.Reader) (*CommitReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	cols, need, err := readHeader(cr, schema.CommitMetricsHeader)
	if err != nil {
		return nil, fmt.Errorf("commit metrics: %w", err)
	}
	return &CommitReader{r: cr, cols: cols, need: need, line: 1}, nil
}

// Next returns the next row, or io.EOF at the end of the file.
func (c *CommitReader) Next() (schema.RawCommitRow, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return schema.RawCommitRow{}, io.EOF
			}
			return schema.RawCommitRow{}, wrapParseError(err, c.line+1)
		}
		c.line, _ = c.r.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if len(rec) < c.need {
			return schema.RawCommitRow{}, &schema.MalformedRecordError{
				Line: c.line, Field: "record", Value: strings.Join(rec, ","),
				Err: fmt.Errorf("expected %d fields, got %d", c.need, len(rec)),
			}
		}
		return schema.RawCommitRow{
			Line:         c.line,
			CommitID:     rec[c.cols["CommitID"]],
			Date:         rec[c.cols["Date"]],
			Author:       rec[c.cols["Author"]],
			File:         rec[c.cols["File"]],
			LOCAdded:     strings.TrimSpace(rec[c.cols["LOC_Added"]]),
			LOCDeleted:   strings.TrimSpace(rec[c.cols["LOC_Deleted"]]),
			TicketLinked: strings.TrimSpace(rec[c.cols["TicketLinked"]]),
		}, nil
	}
}

// readHeader maps the required column names to their positions and returns the
// number of fields a row needs to reach all of them. A repeated name maps to its
// last occurrence.
func readHeader(r *csv.Reader, required []string) (map[string]int, int, error) {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, errors.New("missing header row")
	}
	if err != nil {
		return nil, 0, wrapParseError(err, 1)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	need := 0
	for _, name := range required {
		i, ok := cols[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		need = max(need, i+1)
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("header is missing columns %s", strings.Join(missing, ", "))
	}
	return cols, need, nil
}

func wrapParseError(err error, line int) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.StartLine
	}
	return &schema.MalformedRecordError{Line: line, Field: "record", Err: err}
}

func isBlank(rec []string) bool {
	return !slices.ContainsFunc(rec, func(s string) bool { return strings.TrimSpace(s) != "" })
}
