package core

import (
	"slices"

	"github.com/huangsam/defectset/core/agg"
	"github.com/huangsam/defectset/core/release"
	"github.com/huangsam/defectset/schema"
	"github.com/samber/lo"
)

// EmitDataset joins per-file metrics with their assigned versions. Rows are
// sorted by file path so repeated runs produce identical output.
func EmitDataset(project string, metrics map[string]*agg.FileMetric, timeline *release.Timeline) []schema.DatasetRow {
	paths := lo.Keys(metrics)
	slices.Sort(paths)

	rows := make([]schema.DatasetRow, 0, len(paths))
	for _, p := range paths {
		m := metrics[p]
		rows = append(rows, schema.DatasetRow{
			Project:    project,
			Version:    timeline.AssignVersion(m.LastDate),
			File:       p,
			LOCAdded:   m.LOCAdded,
			LOCDeleted: m.LOCDeleted,
			LOCTouched: m.LOCTouched,
			Churn:      m.Churn,
			NR:         m.NRev,
			NFix:       m.NFix,
			NAuth:      m.NAuth(),
			Buggy:      m.Buggy,
		})
	}
	return rows
}

// countBuggy returns how many rows are labeled buggy.
func countBuggy(rows []schema.DatasetRow) int {
	return lo.CountBy(rows, func(r schema.DatasetRow) bool { return r.Buggy })
}
