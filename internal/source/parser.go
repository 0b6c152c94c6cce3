// Package source discovers and parses snapshot tables.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"
)

// column indexes into a CSV record, resolved from the header.
type columnIndex struct {
	contractID, monthsAgo, snapshotDate, startDate, endDate, budget, workDone int
}

// ParseFile reads a CSV snapshot table. The first malformed row aborts the
// parse with a *ParseError.
func ParseFile(df DiscoveredFile, opts ParseOptions) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	snaps, err := Parse(f, df.Path, opts)
	return ParseResult{Snapshots: snaps, Err: err}
}

// Parse reads a CSV snapshot table from r. name is used in error messages.
func Parse(r io.Reader, name string, opts ParseOptions) ([]model.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", name, err)
	}

	idx, err := resolveColumns(header, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = name
		}
		return nil, err
	}

	var snaps []model.Snapshot
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if isBlank(rec) {
			continue
		}

		line, _ := cr.FieldPos(0)
		s, err := parseRecord(rec, idx, opts)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.File = name
				pe.Row = line
			}
			return nil, err
		}
		s.Source = model.SourceRef{File: name, Row: line}
		snaps = append(snaps, s)
	}

	return snaps, nil
}

func resolveColumns(header []string, opts ParseOptions) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := pos[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return -1, &ParseError{Column: name, Err: ErrMissingColumn}
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	cols := opts.Columns
	for _, c := range []struct {
		dst  *int
		name string
	}{
		{&idx.contractID, cols.ContractID},
		{&idx.monthsAgo, cols.MonthsAgo},
		{&idx.snapshotDate, cols.SnapshotDate},
		{&idx.startDate, cols.StartDate},
		{&idx.endDate, cols.EndDate},
		{&idx.budget, cols.Budget},
		{&idx.workDone, cols.WorkDone},
	} {
		if *c.dst, err = lookup(c.name); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx columnIndex, opts ParseOptions) (model.Snapshot, error) {
	var s model.Snapshot
	cols := opts.Columns
	cell := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	id := cell(idx.contractID)
	if id == "" {
		return s, &ParseError{Column: cols.ContractID, Err: ErrEmptyValue}
	}
	s.Contract = model.ParseContractID(id, opts.Delimiter)

	raw := cell(idx.monthsAgo)
	months, err := parseMonthsAgo(raw)
	if err != nil {
		return s, &ParseError{Column: cols.MonthsAgo, Value: raw, Err: err}
	}
	s.MonthsAgo = months

	raw = cell(idx.snapshotDate)
	if raw == "" {
		return s, &ParseError{Column: cols.SnapshotDate, Err: ErrEmptyValue}
	}
	if s.SnapshotDate, err = parseDate(raw, opts.DateLayout); err != nil {
		return s, &ParseError{Column: cols.SnapshotDate, Value: raw, Err: err}
	}

	// Child contracts may leave their timeline blank; it is inherited on aggregation.
	raw = cell(idx.startDate)
	if s.StartDate, err = parseDate(raw, opts.DateLayout); err != nil {
		return s, &ParseError{Column: cols.StartDate, Value: raw, Err: err}
	}
	raw = cell(idx.endDate)
	if s.EndDate, err = parseDate(raw, opts.DateLayout); err != nil {
		return s, &ParseError{Column: cols.EndDate, Value: raw, Err: err}
	}

	raw = cell(idx.budget)
	if s.Budget, err = parseAmount(raw); err != nil {
		return s, &ParseError{Column: cols.Budget, Value: raw, Err: err}
	}
	raw = cell(idx.workDone)
	if s.Work, err = parseAmount(raw); err != nil {
		return s, &ParseError{Column: cols.WorkDone, Value: raw, Err: err}
	}

	return s, nil
}

func parseMonthsAgo(s string) (int, error) {
	if s == "" {
		return 0, ErrEmptyValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Spreadsheet exports often write integers as "3.0".
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.IsInteger() {
			return 0, ErrInvalidValue
		}
		n = int(d.IntPart())
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative months_ago", ErrInvalidValue)
	}
	return n, nil
}

// parseDate returns the zero time for an empty cell.
func parseDate(s, layout string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidValue
	}
	return t, nil
}

// parseAmount returns an invalid NullDecimal for an empty cell.
func parseAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidValue
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: negative amount", ErrInvalidValue)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
