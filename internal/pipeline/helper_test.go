package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"
)

func mustDate(t testing.TB, s string) time.Time {
	t.Helper()
	if s == "" {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func amount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// snap builds a snapshot; empty strings leave dates unresolved and amounts missing.
func snap(t testing.TB, id string, monthsAgo int, snapshot, start, end, budget, work string) model.Snapshot {
	t.Helper()
	return model.Snapshot{
		Contract:     model.ParseContractID(id, "/"),
		MonthsAgo:    monthsAgo,
		SnapshotDate: mustDate(t, snapshot),
		StartDate:    mustDate(t, start),
		EndDate:      mustDate(t, end),
		Budget:       amount(budget),
		Work:         amount(work),
	}
}

// point builds a derived record at the given coordinates.
func point(id string, monthsAgo int, pctTime, pctComplete float64) model.Record {
	return model.Record{
		Snapshot:    model.Snapshot{Contract: model.ParseContractID(id, "/"), MonthsAgo: monthsAgo},
		PctTime:     pctTime,
		PctComplete: pctComplete,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
