package agg

import (
	"bufio"
	"bytes"
	"strings"
)

// LogCommit is one commit of `git log --numstat` output with its raw numstat lines.
type LogCommit struct {
	Hash    string
	Date    string
	Author  string
	Subject string
	Files   []FileChange
}

// FileChange is one numstat line. Counts stay raw so the binary sentinel survives.
type FileChange struct {
	Path    string
	Added   string
	Deleted string
}

// ParseGitLog splits output produced with the `--%H|%ad|%an|%s` pretty format
// and --numstat into commits. Renamed paths resolve to their new name.
func ParseGitLog(out []byte) []LogCommit {
	var commits []LogCommit
	var current *LogCommit

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		l := strings.TrimRight(sc.Text(), "\r")

		if strings.HasPrefix(l, "--") {
			if c, ok := parseCommitHeader(l); ok {
				commits = append(commits, c)
				current = &commits[len(commits)-1]
			} else {
				current = nil
			}
			continue
		}
		if l == "" || current == nil {
			continue
		}

		if fc, ok := parseFileStatsLine(l); ok {
			current.Files = append(current.Files, fc)
		}
	}
	return commits
}

// parseCommitHeader extracts hash, date, author and subject from a header line.
// The subject may itself contain the separator.
func parseCommitHeader(line string) (LogCommit, bool) {
	if len(line) < 5 { // --x|y|z minimum
		return LogCommit{}, false
	}
	parts := strings.SplitN(line[2:], "|", 4)
	if len(parts) < 3 || parts[0] == "" {
		return LogCommit{}, false
	}
	c := LogCommit{Hash: parts[0], Date: parts[1], Author: parts[2]}
	if len(parts) == 4 {
		c.Subject = parts[3]
	}
	return c, true
}

// parseFileStatsLine parses "added<TAB>deleted<TAB>path".
func parseFileStatsLine(line string) (FileChange, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return FileChange{}, false
	}
	path := parts[2]
	if strings.Contains(path, " => ") {
		_, newPath := parseRenamePath(path)
		if newPath == "" {
			return FileChange{}, false
		}
		path = newPath
	}
	return FileChange{Path: path, Added: parts[0], Deleted: parts[1]}, true
}

// parseRenamePath extracts old and new paths from a rename string.
func parseRenamePath(path string) (string, string) {
	if !strings.Contains(path, "{") {
		// Simple format: "old => new"
		parts := strings.SplitN(path, " => ", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return "", ""
	}

	braceStart := strings.Index(path, "{")
	braceEnd := strings.Index(path, "}")
	if braceEnd == -1 || braceStart >= braceEnd {
		return "", ""
	}

	// Braced format: prefix{old => new}suffix
	prefix := path[:braceStart]
	renamePart := path[braceStart+1 : braceEnd]
	suffix := path[braceEnd+1:]

	renameParts := strings.SplitN(renamePart, " => ", 2)
	if len(renameParts) != 2 {
		return "", ""
	}
	return cleanJoin(prefix, renameParts[0], suffix), cleanJoin(prefix, renameParts[1], suffix)
}

// cleanJoin glues rename parts, collapsing the double slash git leaves when
// one side of the braces is empty ("src/{ => sub}/a.go").
func cleanJoin(prefix, mid, suffix string) string {
	p := prefix + mid + suffix
	return strings.ReplaceAll(p, "//", "/")
}
