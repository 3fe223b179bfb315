package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/defectset/schema"
)

// releaseDateLayouts accept ISO-8601 local date-times as printed with or without
// seconds, and plain dates.
var releaseDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseReleaseDate parses a zone-less release date as a wall-clock time in UTC.
func ParseReleaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized release date %q", s)
}

// ReadReleases reads a release timeline file in file order.
func ReadReleases(r io.Reader) ([]schema.Release, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cols, need, err := readHeader(cr, schema.ReleaseHeader)
	if err != nil {
		return nil, fmt.Errorf("releases: %w", err)
	}

	var releases []schema.Release
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapParseError(err, 0)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if len(rec) < need {
			return nil, &schema.MalformedRecordError{
				Line: line, Field: "record", Value: strings.Join(rec, ","),
				Err: fmt.Errorf("expected %d fields, got %d", need, len(rec)),
			}
		}
		raw := rec[cols["Date"]]
		date, err := ParseReleaseDate(raw)
		if err != nil {
			return nil, &schema.MalformedRecordError{Line: line, Field: "Date", Value: raw, Err: err}
		}
		releases = append(releases, schema.Release{
			Name: strings.TrimSpace(rec[cols["Name"]]),
			ID:   strings.TrimSpace(rec[cols["VersionID"]]),
			Date: date,
		})
	}
	return releases, nil
}

// WriteReleases writes releases with a 1-based index, dates as ISO local date-times.
func WriteReleases(w io.Writer, releases []schema.Release) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.ReleaseHeader); err != nil {
		return err
	}
	for i, r := range releases {
		rec := []string{strconv.Itoa(i + 1), r.ID, r.Name, r.Date.Format("2006-01-02T15:04:05")}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
