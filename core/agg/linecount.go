package agg

import (
	"strconv"

	"github.com/huangsam/defectset/schema"
)

// LineCount is a numstat line count: either a number or the binary sentinel.
type LineCount struct {
	n      int
	binary bool
}

// Numeric returns a LineCount holding n lines.
func Numeric(n int) LineCount {
	return LineCount{n: n}
}

// Binary is the LineCount git reports for binary files.
var Binary = LineCount{binary: true}

// IsBinary reports whether the count came from the binary sentinel.
func (c LineCount) IsBinary() bool {
	return c.binary
}

// Value returns the count, with binary files counting as zero lines.
func (c LineCount) Value() int {
	if c.binary {
		return 0
	}
	return c.n
}

// ParseLineCount parses a LOC field. The "-" sentinel yields Binary; anything that
// is not a non-negative integer is a *schema.MalformedRecordError.
func ParseLineCount(s string, line int, field string) (LineCount, error) {
	if s == schema.BinaryLineCount {
		return Binary, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return LineCount{}, &schema.MalformedRecordError{Line: line, Field: field, Value: s, Err: err}
	}
	if n < 0 {
		return LineCount{}, &schema.MalformedRecordError{Line: line, Field: field, Value: s}
	}
	return Numeric(n), nil
}
