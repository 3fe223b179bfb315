// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/parquet"
	"github.com/huangsam/defectset/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// churnPrecision is the number of decimals of the Churn column.
const churnPrecision = 2

// WriteDataset outputs the dataset rows, dispatching based on the output format configured.
func WriteDataset(rows []schema.DatasetRow, summary schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(churnPrecision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDatasetJSON(w, rows, summary)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.TextOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDatasetTable(w, rows, summary, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	case schema.ParquetOut:
		if err := parquet.WriteDatasetRowsParquet(parquet.FromDatasetRows(rows), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
	default:
		// The CSV layout is the dataset contract
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteDatasetCSV(w, rows)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	}
	return nil
}

// WriteDatasetCSV writes the header and one line per row.
func WriteDatasetCSV(w io.Writer, rows []schema.DatasetRow) error {
	fmtFloat, _ := createFormatters(churnPrecision)
	return writeCSVWithHeader(w, schema.DatasetHeader, func(csvWriter *csv.Writer) error {
		for _, r := range rows {
			if err := csvWriter.Write(datasetRecord(r, fmtFloat)); err != nil {
				return err
			}
		}
		return nil
	})
}

func datasetRecord(r schema.DatasetRow, fmtFloat func(float64) string) []string {
	return []string{
		r.Project,
		r.Version,
		r.File,
		strconv.Itoa(r.LOCAdded),
		strconv.Itoa(r.LOCDeleted),
		strconv.Itoa(r.LOCTouched),
		fmtFloat(r.Churn),
		strconv.Itoa(r.NR),
		strconv.Itoa(r.NFix),
		strconv.Itoa(r.NAuth),
		r.BuggyLabel(),
	}
}

// writeDatasetJSON writes the rows together with the run summary.
func writeDatasetJSON(w io.Writer, rows []schema.DatasetRow, summary schema.RunSummary) error {
	type jsonDataset struct {
		Summary schema.RunSummary   `json:"summary"`
		Rows    []schema.DatasetRow `json:"rows"`
	}
	if rows == nil {
		rows = []schema.DatasetRow{}
	}
	return writeJSON(w, jsonDataset{Summary: summary, Rows: rows})
}

// writeDatasetTable generates and writes the human-readable table.
func writeDatasetTable(writer io.Writer, rows []schema.DatasetRow, summary schema.RunSummary, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Version", "Path", "Added", "Deleted", "Touched", "Churn", "NR", "NFix", "NAuth", "Buggy"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		label := r.BuggyLabel()
		if cfg.UseColors {
			label = contract.GetColorLabel(label, r.Buggy)
		}
		data = append(data, []string{
			r.Version,
			contract.TruncatePath(r.File, pathWidth),
			fmt.Sprintf(intFmt, r.LOCAdded),
			fmt.Sprintf(intFmt, r.LOCDeleted),
			fmt.Sprintf(intFmt, r.LOCTouched),
			fmtFloat(r.Churn),
			fmt.Sprintf(intFmt, r.NR),
			fmt.Sprintf(intFmt, r.NFix),
			fmt.Sprintf(intFmt, r.NAuth),
			label,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	return writeSummary(writer, summary, cfg, duration)
}

// writeSummary prints the counts of a build below the table.
func writeSummary(w io.Writer, s schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "%s files (%s buggy) across %d releases, cutoff %s\n",
		humanize.Comma(int64(s.Files)), humanize.Comma(int64(s.BuggyFiles)), s.Releases,
		s.Cutoff.Format(time.DateOnly)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records: %s read, %s retained, %s after cutoff, %s date fallbacks, %s binary fields\n",
		humanize.Comma(int64(s.RecordsRead)), humanize.Comma(int64(s.RecordsRetained)),
		humanize.Comma(int64(s.RecordsExcluded)), humanize.Comma(int64(s.DateFallbacks)),
		humanize.Comma(int64(s.BinaryFields))); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Built in %v with %d workers\n", duration, cfg.Workers)
	return err
}
