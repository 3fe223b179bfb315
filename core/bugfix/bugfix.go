// Package bugfix decides whether a commit is a defect fix.
package bugfix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/defectset/schema"
	"github.com/samber/lo"
)

// DefaultPattern matches the usual fix-indicating keywords anywhere in a message.
const DefaultPattern = `fix|bug|issue|error|patch|resolve`

// Classifier labels a single commit message. Implementations are pure and
// safe for concurrent use.
type Classifier interface {
	IsFix(message string) bool
	Kind() schema.ClassifierKind
}

// Options selects and configures a Classifier.
type Options struct {
	Kind         schema.ClassifierKind
	TicketPrefix string   // e.g. "BOOKKEEPER-"
	Tickets      []string // Fixed ticket IDs, with or without the prefix
	Patterns     []string // Extra regular expressions for the pattern strategy
}

// New builds the Classifier named by opts.Kind.
func New(opts Options) (Classifier, error) {
	switch opts.Kind {
	case schema.TicketClassifier, "":
		return NewTicketMatcher(opts.TicketPrefix, opts.Tickets), nil
	case schema.PatternClassifier:
		return NewPatternMatcher(opts.Patterns...)
	default:
		return nil, fmt.Errorf("unknown classifier %q. must be ticket or pattern", opts.Kind)
	}
}

// TicketMatcher flags messages that mention a known fixed ticket as prefix+ID.
type TicketMatcher struct {
	prefix  string
	needles []string
}

var _ Classifier = &TicketMatcher{} // Compile-time check

// NewTicketMatcher builds a matcher for the given ticket IDs. IDs that already
// carry the prefix (as issue tracker keys do) are accepted as-is.
func NewTicketMatcher(prefix string, tickets []string) *TicketMatcher {
	ids := set.New[string](len(tickets))
	for _, t := range tickets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		ids.Insert(strings.TrimPrefix(t, prefix))
	}
	needles := lo.Map(ids.Slice(), func(id string, _ int) string {
		return prefix + id
	})
	return &TicketMatcher{prefix: prefix, needles: needles}
}

// IsFix implements the Classifier interface.
func (m *TicketMatcher) IsFix(message string) bool {
	if message == "" {
		return false
	}
	for _, n := range m.needles {
		if strings.Contains(message, n) {
			return true
		}
	}
	return false
}

// Kind implements the Classifier interface.
func (m *TicketMatcher) Kind() schema.ClassifierKind {
	return schema.TicketClassifier
}

// Size returns the number of distinct tickets the matcher knows about.
func (m *TicketMatcher) Size() int {
	return len(m.needles)
}

// PatternMatcher flags messages matching a case-insensitive regular expression.
type PatternMatcher struct {
	re *regexp.Regexp
}

var _ Classifier = &PatternMatcher{} // Compile-time check

// NewPatternMatcher compiles DefaultPattern together with any extra patterns.
func NewPatternMatcher(extra ...string) (*PatternMatcher, error) {
	alts := []string{DefaultPattern}
	for _, p := range extra {
		if p = strings.TrimSpace(p); p != "" {
			alts = append(alts, p)
		}
	}
	expr := "(?i)(" + strings.Join(alts, "|") + ")"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid bug-fix pattern: %w", err)
	}
	return &PatternMatcher{re: re}, nil
}

// IsFix implements the Classifier interface.
func (m *PatternMatcher) IsFix(message string) bool {
	return message != "" && m.re.MatchString(message)
}

// Kind implements the Classifier interface.
func (m *PatternMatcher) Kind() schema.ClassifierKind {
	return schema.PatternClassifier
}

// String returns the compiled expression.
func (m *PatternMatcher) String() string {
	return m.re.String()
}
