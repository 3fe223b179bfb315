package bugfix

import (
	"testing"

	"github.com/huangsam/defectset/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketMatcher(t *testing.T) {
	m := NewTicketMatcher("PROJ-", []string{"123"})

	assert.True(t, m.IsFix("Fixes PROJ-123 crash"))
	assert.False(t, m.IsFix("Fixes PROJ-999 crash"))
	assert.False(t, m.IsFix(""))
	assert.False(t, m.IsFix("Fixes 123 crash"), "the prefix is required")
	assert.Equal(t, schema.TicketClassifier, m.Kind())
}

func TestTicketMatcherSubstringSemantics(t *testing.T) {
	// Literal substring match: PROJ-12 is contained in PROJ-123.
	m := NewTicketMatcher("PROJ-", []string{"12"})
	assert.True(t, m.IsFix("PROJ-123: tidy up"))
}

func TestTicketMatcherEmptySet(t *testing.T) {
	m := NewTicketMatcher("PROJ-", nil)
	assert.Equal(t, 0, m.Size())
	assert.False(t, m.IsFix("PROJ-1 fix everything"))
}

func TestTicketMatcherNormalizesKeys(t *testing.T) {
	m := NewTicketMatcher("BOOKKEEPER-", []string{"BOOKKEEPER-42", " 7 ", "", "42"})
	assert.Equal(t, 2, m.Size())
	assert.True(t, m.IsFix("BOOKKEEPER-42 handle ledger close"))
	assert.True(t, m.IsFix("merge BOOKKEEPER-7"))
}

func TestPatternMatcher(t *testing.T) {
	m, err := NewPatternMatcher()
	require.NoError(t, err)

	tests := []struct {
		msg  string
		want bool
	}{
		{"Fix NPE in reader", true},
		{"BUG: wrong offset", true},
		{"closes issue with flaky test", true},
		{"handle Error path", true},
		{"apply patch from mailing list", true},
		{"Resolved merge conflict", true},
		{"prefix-fixed-suffix", true},
		{"Add new feature", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.IsFix(tt.msg), "message %q", tt.msg)
	}
	assert.Equal(t, schema.PatternClassifier, m.Kind())
}

func TestPatternMatcherExtraPatterns(t *testing.T) {
	m, err := NewPatternMatcher(`hotfix`, `defect`, " ")
	require.NoError(t, err)
	assert.True(t, m.IsFix("Defect 17 addressed"))
	assert.Contains(t, m.String(), "defect")

	_, err = NewPatternMatcher(`(`)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	c, err := New(Options{Kind: schema.TicketClassifier, TicketPrefix: "PROJ-", Tickets: []string{"1"}})
	require.NoError(t, err)
	assert.IsType(t, &TicketMatcher{}, c)

	c, err = New(Options{})
	require.NoError(t, err)
	assert.Equal(t, schema.TicketClassifier, c.Kind())

	c, err = New(Options{Kind: schema.PatternClassifier})
	require.NoError(t, err)
	assert.IsType(t, &PatternMatcher{}, c)

	_, err = New(Options{Kind: "ml"})
	assert.ErrorContains(t, err, "unknown classifier")
}
