package core

import (
	"context"
	"time"

	"github.com/huangsam/defectset/core/agg"
	"github.com/huangsam/defectset/core/release"
	"github.com/huangsam/defectset/schema"
)

// BuildOptions tunes a dataset build.
type BuildOptions struct {
	MinReleases  int
	Workers      int
	DateFallback schema.DateFallback
	Now          func() time.Time
}

// BuildOutput is everything a dataset build produces.
type BuildOutput struct {
	Rows     []schema.DatasetRow
	Timeline *release.Timeline
	Summary  schema.RunSummary
}

// BuildDataset runs the full pipeline over in-memory releases and a commit stream:
// timeline and cutoff, the aggregation fold, version assignment and emission.
// Any malformed record aborts the build before a single row is produced.
func BuildDataset(ctx context.Context, project string, releases []schema.Release, src agg.Source, opts BuildOptions) (*BuildOutput, error) {
	timeline, err := release.NewTimeline(releases, opts.MinReleases)
	if err != nil {
		return nil, err
	}

	res, err := agg.AggregateParallel(ctx, src, agg.Options{
		Cutoff:   timeline.Cutoff(),
		Fallback: opts.DateFallback,
		Now:      opts.Now,
	}, opts.Workers)
	if err != nil {
		return nil, err
	}

	rows := EmitDataset(project, res.Metrics, timeline)
	return &BuildOutput{
		Rows:     rows,
		Timeline: timeline,
		Summary: schema.RunSummary{
			Project:         project,
			Releases:        timeline.Len(),
			Cutoff:          timeline.Cutoff(),
			RecordsRead:     res.Stats.Read,
			RecordsRetained: res.Stats.Retained,
			RecordsExcluded: res.Stats.Excluded,
			DateFallbacks:   res.Stats.DateFallbacks,
			BinaryFields:    res.Stats.BinaryFields,
			Files:           len(rows),
			BuggyFiles:      countBuggy(rows),
		},
	}, nil
}
