package schema

import "fmt"

// ConfigurationError reports a release timeline that cannot produce a training cutoff.
type ConfigurationError struct {
	Releases int // Number of releases available
	Required int // Minimum number of releases required
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("release timeline has %d releases, at least %d required to compute a training cutoff", e.Releases, e.Required)
}

// MalformedRecordError reports a commit-metrics field that cannot be parsed.
type MalformedRecordError struct {
	Line  int    // 1-based line in the commit-metrics file (0 when unknown)
	Field string // Column name
	Value string // Offending raw value
	Err   error  // Underlying parse error, if any
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record at line %d: field %s has invalid value %q", e.Line, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// DateParseError reports a commit date that matched none of the accepted layouts.
type DateParseError struct {
	Line  int
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date %q at line %d", e.Value, e.Line)
}

// GitCloneError reports a failed repository clone.
type GitCloneError struct {
	URL string
	Err error
}

func (e *GitCloneError) Error() string {
	return fmt.Sprintf("cannot clone %s: %v", e.URL, e.Err)
}

func (e *GitCloneError) Unwrap() error {
	return e.Err
}
