// Package pipeline turns snapshot tables into contract trajectories.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"
)

// ErrMalformedDateRange marks a contract whose end date is not after its start date.
var ErrMalformedDateRange = errors.New("malformed date range")

var hundred = decimal.NewFromInt(100)

// Derive computes the time and completion percentages of one snapshot.
// Undefined percentages are NaN and flagged in Conditions; only a
// non-positive contract duration is reported as an error.
func Derive(s model.Snapshot) (model.Record, error) {
	r := model.Record{
		Snapshot:    s,
		PctTime:     math.NaN(),
		PctComplete: math.NaN(),
	}

	if pct, ok := completion(s.Budget, s.Work); ok {
		r.PctComplete = pct
	} else {
		r.Conditions |= model.CondUndefinedCompletion
	}

	if !s.HasDates() {
		r.Conditions |= model.CondUnresolvedDates
		return r, nil
	}

	r.TotalDays = daysBetween(s.StartDate, s.EndDate)
	if r.TotalDays <= 0 {
		r.Conditions |= model.CondMalformedDateRange
		return r, fmt.Errorf("%w: contract %s ends %s, not after its start %s",
			ErrMalformedDateRange, s.ID(),
			s.EndDate.Format(time.DateOnly), s.StartDate.Format(time.DateOnly))
	}

	// A snapshot taken before the start date counts as not yet started.
	r.DaysPassed = max(0, daysBetween(s.StartDate, s.SnapshotDate))
	r.PctTime = 100 * float64(r.DaysPassed) / float64(r.TotalDays)
	r.Overdue = r.PctTime > 100

	return r, nil
}

func completion(budget, work decimal.NullDecimal) (float64, bool) {
	if !budget.Valid || !work.Valid || budget.Decimal.IsZero() {
		return 0, false
	}
	return work.Decimal.Mul(hundred).Div(budget.Decimal).InexactFloat64(), true
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// DeriveResult holds the derived table and the contracts dropped from it.
type DeriveResult struct {
	Records  []model.Record
	Excluded []string
}

// DeriveTable derives every snapshot. All rows of a contract with a malformed
// date range are excluded with a warning; other contracts are unaffected.
// Rows keep their input order.
func DeriveTable(snaps []model.Snapshot, logger *slog.Logger) DeriveResult {
	logger = componentLogger(logger, "deriver")

	records := make([]model.Record, len(snaps))
	bad := make(map[string]error)
	unresolved := make(map[string]int)
	var order, gaps []string

	for i, s := range snaps {
		r, err := Derive(s)
		records[i] = r
		if err != nil {
			if _, seen := bad[s.ID()]; !seen {
				bad[s.ID()] = err
				order = append(order, s.ID())
			}
		}
		if r.Conditions.Has(model.CondUnresolvedDates) {
			if unresolved[s.ID()] == 0 {
				gaps = append(gaps, s.ID())
			}
			unresolved[s.ID()]++
		}
	}

	for _, id := range order {
		logger.Warn("excluding contract", slog.String("contract", id), slog.Any("error", bad[id]))
	}
	for _, id := range gaps {
		if _, excluded := bad[id]; excluded {
			continue
		}
		logger.Warn("contract timeline unresolved",
			slog.String("contract", id), slog.Int("rows", unresolved[id]))
	}

	if len(bad) == 0 {
		return DeriveResult{Records: records}
	}

	kept := records[:0:0]
	for _, r := range records {
		if _, excluded := bad[r.ID()]; !excluded {
			kept = append(kept, r)
		}
	}
	return DeriveResult{Records: kept, Excluded: order}
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return discardLogger()
	}
	return logger.With(slog.String("component", component))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
