package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/defectset/core/agg"
	"github.com/huangsam/defectset/core/bugfix"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/csvio"
	"github.com/huangsam/defectset/schema"
)

// ExtractStats counts what an extraction wrote.
type ExtractStats struct {
	Commits    int
	FixCommits int
	Rows       int
	Skipped    int // numstat lines dropped by the suffix or exclude filters
}

// ExtractOptions filters the files written during extraction.
type ExtractOptions struct {
	Suffixes []string
	Excludes []string
}

// ExtractCommits classifies each commit of a parsed git log once and writes one
// commit-metrics row per touched file.
func ExtractCommits(commits []agg.LogCommit, classifier bugfix.Classifier, opts ExtractOptions, w *csvio.CommitWriter) (ExtractStats, error) {
	var stats ExtractStats
	for _, c := range commits {
		stats.Commits++
		isFix := classifier.IsFix(c.Subject)
		if isFix {
			stats.FixCommits++
		}
		linked := csvio.FormatFixFlag(isFix)
		for _, f := range c.Files {
			if !contract.MatchesSuffix(f.Path, opts.Suffixes) || contract.ShouldIgnore(f.Path, opts.Excludes) {
				stats.Skipped++
				continue
			}
			row := schema.RawCommitRow{
				CommitID:     c.Hash,
				Date:         c.Date,
				Author:       c.Author,
				File:         f.Path,
				LOCAdded:     f.Added,
				LOCDeleted:   f.Deleted,
				TicketLinked: linked,
			}
			if err := w.Write(row); err != nil {
				return stats, err
			}
			stats.Rows++
		}
	}
	return stats, w.Flush()
}

// ensureRepo clones cfg.RepoURL into cfg.RepoPath when the path does not exist yet.
func ensureRepo(ctx context.Context, cfg *contract.Config, client contract.GitClient) error {
	if cfg.RepoPath == "" {
		return errors.New("--repo is required")
	}
	_, err := os.Stat(cfg.RepoPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if cfg.RepoURL == "" {
		return fmt.Errorf("repository %s does not exist and no --repo-url was given", cfg.RepoPath)
	}
	contract.Log.WithField("url", cfg.RepoURL).Info("cloning repository")
	return client.Clone(ctx, cfg.RepoURL, cfg.RepoPath)
}

// newClassifier builds the configured classifier, loading the ticket file when needed.
func newClassifier(cfg *contract.Config) (bugfix.Classifier, error) {
	opts := bugfix.Options{
		Kind:         cfg.Classifier,
		TicketPrefix: cfg.TicketPrefix,
		Patterns:     cfg.Patterns,
	}
	if cfg.Classifier == schema.TicketClassifier {
		if cfg.TicketsFile == "" {
			return nil, errors.New("--tickets is required by the ticket classifier")
		}
		f, err := os.Open(cfg.TicketsFile)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		if opts.Tickets, err = csvio.ReadTickets(f); err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfg.TicketsFile, err)
		}
		if len(opts.Tickets) == 0 {
			contract.LogWarn("Ticket file has no tickets, no commit will be labeled a fix", errors.New(cfg.TicketsFile))
		}
	}
	return bugfix.New(opts)
}
