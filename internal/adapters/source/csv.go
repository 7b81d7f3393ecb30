package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseCSV reads a competitor spreadsheet export. The expected layout is a
// header row `name,score_1..score_N,spend_1..spend_N` followed by one row
// per competitor. Blank cells read as 0, the "did not score" sentinel.
// Parsed rows go through the same normalization path as JSON submissions.
func ParseCSV(r io.Reader) ([]CompetitorInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", ErrMissingHeader)
	}
	eventCount, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = 1 + 2*eventCount

	var batch []CompetitorInput
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(batch)+2, ErrRaggedRow)
		}

		in := CompetitorInput{Name: strings.TrimSpace(row[0])}
		in.Scores, err = parseCells(row[1 : 1+eventCount])
		if err != nil {
			return nil, fmt.Errorf("competitor %q scores: %w", in.Name, err)
		}
		in.Spending, err = parseCells(row[1+eventCount:])
		if err != nil {
			return nil, fmt.Errorf("competitor %q spending: %w", in.Name, err)
		}
		batch = append(batch, in)
	}

	if len(batch) == 0 {
		return nil, ErrNoCompetitors
	}
	return batch, nil
}

// parseHeader validates the column layout and returns the event count.
func parseHeader(header []string) (int, error) {
	if len(header) < 3 || strings.ToLower(strings.TrimSpace(header[0])) != "name" {
		return 0, ErrMissingHeader
	}
	if (len(header)-1)%2 != 0 {
		return 0, ErrMissingHeader
	}
	eventCount := (len(header) - 1) / 2
	for i := 0; i < eventCount; i++ {
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(header[1+i])), "score") {
			return 0, ErrMissingHeader
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(header[1+eventCount+i])), "spend") {
			return 0, ErrMissingHeader
		}
	}
	return eventCount, nil
}

func parseCells(cells []string) ([]float64, error) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue // no score recorded
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", cell, ErrBadNumber)
		}
		out[i] = v
	}
	return out, nil
}
