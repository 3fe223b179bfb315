// Package release builds the release timeline, its training cutoff and the
// mapping from a point in time to the release it belongs to.
package release

import (
	"sort"
	"time"

	"github.com/huangsam/defectset/schema"
)

// Timeline is a release sequence sorted by date, plus the training cutoff.
// It is immutable once built and safe for concurrent reads.
type Timeline struct {
	releases []schema.Release
	cutoff   int // index of the cutoff release
}

// NewTimeline sorts releases ascending by date and computes the training cutoff,
// which is the release at index floor(len/2)-1 (clamped to 0 for a single release).
// Equal dates keep their input order. A ConfigurationError is returned when fewer
// than max(1, minReleases) releases are given.
func NewTimeline(releases []schema.Release, minReleases int) (*Timeline, error) {
	required := max(1, minReleases)
	if len(releases) < required {
		return nil, &schema.ConfigurationError{Releases: len(releases), Required: required}
	}

	sorted := make([]schema.Release, len(releases))
	copy(sorted, releases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &Timeline{
		releases: sorted,
		cutoff:   max(len(sorted)/2-1, 0),
	}, nil
}

// Len returns the number of releases in the timeline.
func (t *Timeline) Len() int {
	return len(t.releases)
}

// Releases returns a copy of the sorted releases.
func (t *Timeline) Releases() []schema.Release {
	out := make([]schema.Release, len(t.releases))
	copy(out, t.releases)
	return out
}

// Cutoff returns the training cutoff date. Commits dated after it are outside the window.
func (t *Timeline) Cutoff() time.Time {
	return t.releases[t.cutoff].Date
}

// CutoffRelease returns the release whose date is the training cutoff.
func (t *Timeline) CutoffRelease() schema.Release {
	return t.releases[t.cutoff]
}

// TrainingReleases returns the releases up to and including the cutoff release.
func (t *Timeline) TrainingReleases() []schema.Release {
	out := make([]schema.Release, t.cutoff+1)
	copy(out, t.releases[:t.cutoff+1])
	return out
}

// InWindow reports whether a commit date falls inside the training window (date <= cutoff).
func (t *Timeline) InWindow(date time.Time) bool {
	return !date.After(t.Cutoff())
}

// AssignVersion returns the name of the latest release dated at or before ts,
// or schema.PreRelease when ts precedes every release. Among releases sharing
// a date the last one in timeline order wins.
func (t *Timeline) AssignVersion(ts time.Time) string {
	// First index whose date is strictly after ts.
	idx := sort.Search(len(t.releases), func(i int) bool {
		return t.releases[i].Date.After(ts)
	})
	if idx == 0 {
		return schema.PreRelease
	}
	return t.releases[idx-1].Name
}
