package agg

import (
	"time"

	"github.com/hashicorp/go-set/v2"
)

// FileMetric is the running summary of all retained commits touching one file.
// Derived fields (LOCTouched, Churn, Buggy) are recomputed on every mutation.
type FileMetric struct {
	Path       string
	LOCAdded   int
	LOCDeleted int
	LOCTouched int
	NRev       int
	NFix       int
	Churn      float64
	Buggy      bool
	LastDate   time.Time

	authors *set.Set[string]
}

// NewFileMetric returns an empty metric for path.
func NewFileMetric(path string) *FileMetric {
	return &FileMetric{Path: path, authors: set.New[string](4)}
}

// NAuth is the number of distinct authors.
func (m *FileMetric) NAuth() int {
	return m.authors.Size()
}

// Authors returns the distinct authors in no particular order.
func (m *FileMetric) Authors() []string {
	return m.authors.Slice()
}

// apply folds one retained change into the metric.
func (m *FileMetric) apply(author string, date time.Time, added, deleted int, isFix bool) {
	m.LOCAdded += added
	m.LOCDeleted += deleted
	m.NRev++
	if isFix {
		m.NFix++
	}
	m.authors.Insert(author)
	if m.LastDate.IsZero() || !date.Before(m.LastDate) {
		m.LastDate = date
	}
	m.recompute()
}

// Merge folds other into m. The operation is commutative and associative, so
// partial metrics for the same file can be combined in any order.
func (m *FileMetric) Merge(other *FileMetric) {
	if other == nil {
		return
	}
	m.LOCAdded += other.LOCAdded
	m.LOCDeleted += other.LOCDeleted
	m.NRev += other.NRev
	m.NFix += other.NFix
	m.authors.InsertSet(other.authors)
	if other.LastDate.After(m.LastDate) {
		m.LastDate = other.LastDate
	}
	m.recompute()
}

func (m *FileMetric) recompute() {
	m.LOCTouched = m.LOCAdded + m.LOCDeleted
	m.Buggy = m.NFix > 0
	if m.NRev > 0 {
		m.Churn = float64(m.LOCTouched) / float64(m.NRev)
	} else {
		m.Churn = 0
	}
}
