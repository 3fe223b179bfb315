// Package agg folds per-file commit records into file metrics for the training window.
package agg

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields raw commit-metrics rows and returns io.EOF once exhausted.
type Source interface {
	Next() (schema.RawCommitRow, error)
}

// Stats counts what happened to the records of one aggregation.
type Stats struct {
	Read          int // Rows pulled from the source
	Retained      int // Records inside the training window
	Excluded      int // Records dated after the cutoff
	DateFallbacks int // Rows whose date could not be parsed
	BinaryFields  int // LOC fields holding the binary sentinel
}

func (s *Stats) add(o Stats) {
	s.Read += o.Read
	s.Retained += o.Retained
	s.Excluded += o.Excluded
	s.DateFallbacks += o.DateFallbacks
	s.BinaryFields += o.BinaryFields
}

// Options controls decoding and the training window of an aggregation.
type Options struct {
	Cutoff   time.Time
	Fallback schema.DateFallback
	Now      func() time.Time // Clock for the "now" fallback; defaults to time.Now
}

// Result is the outcome of a full aggregation.
type Result struct {
	Metrics map[string]*FileMetric
	Stats   Stats
}

// Aggregator folds CommitRecords into per-file metrics. It is not safe for
// concurrent use; parallel callers give each worker its own Aggregator.
type Aggregator struct {
	cutoff  time.Time
	metrics map[string]*FileMetric
	stats   Stats
}

// New returns an empty Aggregator keeping records dated at or before cutoff.
func New(cutoff time.Time) *Aggregator {
	return &Aggregator{cutoff: cutoff, metrics: make(map[string]*FileMetric)}
}

// Add folds one record and reports whether it fell inside the training window.
func (a *Aggregator) Add(rec schema.CommitRecord) bool {
	if rec.Date.After(a.cutoff) {
		a.stats.Excluded++
		return false
	}
	m, ok := a.metrics[rec.FilePath]
	if !ok {
		m = NewFileMetric(rec.FilePath)
		a.metrics[rec.FilePath] = m
	}
	m.apply(rec.Author, rec.Date, rec.LOCAdded, rec.LOCDeleted, rec.IsFix)
	a.stats.Retained++
	return true
}

// Metrics returns the per-file metrics keyed by path.
func (a *Aggregator) Metrics() map[string]*FileMetric {
	return a.metrics
}

// Stats returns the counters accumulated by Add.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Decoder turns raw rows into CommitRecords, applying the date fallback policy.
type Decoder struct {
	fallback schema.DateFallback
	now      func() time.Time
	stats    Stats
}

// NewDecoder returns a Decoder for the given policy. An empty policy means skip.
func NewDecoder(fallback schema.DateFallback, now func() time.Time) *Decoder {
	if fallback == "" {
		fallback = schema.SkipDateFallback
	}
	if now == nil {
		now = time.Now
	}
	return &Decoder{fallback: fallback, now: now}
}

// Decode parses row. ok is false when the row was dropped by the skip policy.
func (d *Decoder) Decode(row schema.RawCommitRow) (rec schema.CommitRecord, ok bool, err error) {
	d.stats.Read++

	added, err := ParseLineCount(row.LOCAdded, row.Line, "LOC_Added")
	if err != nil {
		return rec, false, err
	}
	deleted, err := ParseLineCount(row.LOCDeleted, row.Line, "LOC_Deleted")
	if err != nil {
		return rec, false, err
	}
	isFix, err := parseFixFlag(row)
	if err != nil {
		return rec, false, err
	}

	date, err := ParseCommitDate(row.Date, row.Line)
	if err != nil {
		d.stats.DateFallbacks++
		entry := contract.Log.WithFields(logrus.Fields{
			"line":   row.Line,
			"commit": row.CommitID,
			"value":  row.Date,
			"policy": d.fallback,
		})
		switch d.fallback {
		case schema.FailDateFallback:
			return rec, false, err
		case schema.NowDateFallback:
			entry.Warn("unparseable commit date, using current time")
			date = WallClock(d.now())
		default:
			entry.Warn("unparseable commit date, skipping record")
			return rec, false, nil
		}
	}

	for _, c := range []LineCount{added, deleted} {
		if c.IsBinary() {
			d.stats.BinaryFields++
		}
	}

	return schema.CommitRecord{
		CommitHash: row.CommitID,
		Date:       date,
		Author:     row.Author,
		FilePath:   row.File,
		LOCAdded:   added.Value(),
		LOCDeleted: deleted.Value(),
		IsFix:      isFix,
	}, true, nil
}

// Stats returns the decode counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// parseFixFlag accepts the words "true" and "false" in any case; an empty
// field means false.
func parseFixFlag(row schema.RawCommitRow) (bool, error) {
	switch {
	case row.TicketLinked == "", strings.EqualFold(row.TicketLinked, "false"):
		return false, nil
	case strings.EqualFold(row.TicketLinked, "true"):
		return true, nil
	}
	return false, &schema.MalformedRecordError{
		Line: row.Line, Field: "TicketLinked", Value: row.TicketLinked,
		Err: errors.New(`expected "true" or "false"`),
	}
}

// Aggregate drains src sequentially and returns the per-file metrics.
func Aggregate(ctx context.Context, src Source, opts Options) (*Result, error) {
	dec := NewDecoder(opts.Fallback, opts.Now)
	agg := New(opts.Cutoff)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, ok, err := dec.Decode(row)
		if err != nil {
			return nil, err
		}
		if ok {
			agg.Add(rec)
		}
	}
	stats := dec.Stats()
	stats.add(agg.Stats())
	return &Result{Metrics: agg.Metrics(), Stats: stats}, nil
}

// AggregateParallel decodes src on one goroutine and fans records out to workers
// partitioned by file path, so every file is owned by exactly one worker.
// The result is identical to Aggregate over the same input.
func AggregateParallel(ctx context.Context, src Source, opts Options, workers int) (*Result, error) {
	if workers <= 1 {
		return Aggregate(ctx, src, opts)
	}

	g, ctx := errgroup.WithContext(ctx)
	queues := make([]chan schema.CommitRecord, workers)
	aggs := make([]*Aggregator, workers)
	for i := range workers {
		queues[i] = make(chan schema.CommitRecord, 256)
		aggs[i] = New(opts.Cutoff)
	}

	dec := NewDecoder(opts.Fallback, opts.Now)
	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		for {
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			rec, ok, err := dec.Decode(row)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			select {
			case queues[partition(rec.FilePath, workers)] <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := range workers {
		g.Go(func() error {
			for rec := range queues[i] {
				aggs[i].Add(rec)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating commit records: %w", err)
	}

	res := &Result{Metrics: make(map[string]*FileMetric), Stats: dec.Stats()}
	for _, a := range aggs {
		for path, m := range a.Metrics() {
			if existing, ok := res.Metrics[path]; ok {
				existing.Merge(m)
				continue
			}
			res.Metrics[path] = m
		}
		res.Stats.add(a.Stats())
	}
	return res, nil
}

func partition(path string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32() % uint32(n))
}
