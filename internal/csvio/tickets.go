package csvio

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/huangsam/defectset/schema"
)

// ReadTickets reads a single-column ticket file. The header row is skipped and
// blank lines are ignored.
func ReadTickets(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, wrapParseError(err, 1)
	}

	var tickets []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return tickets, nil
		}
		if err != nil {
			return nil, wrapParseError(err, 0)
		}
		if id := strings.TrimSpace(rec[0]); id != "" {
			tickets = append(tickets, id)
		}
	}
}

// WriteTickets writes ticket IDs under the TicketID header.
func WriteTickets(w io.Writer, tickets []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.TicketHeader); err != nil {
		return err
	}
	for _, t := range tickets {
		if err := cw.Write([]string{t}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
