package pipeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/theirongolddev/burnline/internal/model"
)

func TestAggregate_SumsChildrenIntoParent(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "P", 0, "2024-07-01", "2024-01-01", "2025-01-01", "800", "400"),
		snap(t, "P/X", 0, "2024-07-01", "", "", "200", "50"),
		snap(t, "P", 1, "2024-06-01", "2024-01-01", "2025-01-01", "800", "300"),
	}

	out := Aggregate(snaps)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}

	cur := out[0]
	if cur.ID() != "P" || cur.MonthsAgo != 0 {
		t.Fatalf("first row = %s@%d, want P@0", cur.ID(), cur.MonthsAgo)
	}
	if cur.Budget.Decimal.IntPart() != 1000 {
		t.Errorf("Budget = %v, want 1000", cur.Budget.Decimal)
	}
	if cur.Work.Decimal.IntPart() != 450 {
		t.Errorf("Work = %v, want 450", cur.Work.Decimal)
	}
	if !cur.StartDate.Equal(mustDate(t, "2024-01-01")) || !cur.EndDate.Equal(mustDate(t, "2025-01-01")) {
		t.Errorf("dates = %v..%v, want the parent's timeline", cur.StartDate, cur.EndDate)
	}
	if !cur.Contract.IsParent || cur.Contract.BaseID != "P" {
		t.Errorf("Contract = %+v, want base P", cur.Contract)
	}

	if out[1].Budget.Decimal.IntPart() != 800 {
		t.Errorf("months_ago 1 Budget = %v, want 800 (no child at that key)", out[1].Budget.Decimal)
	}
}

func TestAggregate_MissingValuesCountAsZero(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "P", 0, "2024-07-01", "2024-01-01", "2025-01-01", "", "100"),
		snap(t, "P/X", 0, "2024-07-01", "", "", "200", ""),
	}
	out := Aggregate(snaps)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if !out[0].Budget.Valid || out[0].Budget.Decimal.IntPart() != 200 {
		t.Errorf("Budget = %+v, want 200", out[0].Budget)
	}
	if !out[0].Work.Valid || out[0].Work.Decimal.IntPart() != 100 {
		t.Errorf("Work = %+v, want 100", out[0].Work)
	}
}

func TestAggregate_MissingParentLeavesDatesUnresolved(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "P", 1, "2024-06-01", "2024-01-01", "2025-01-01", "800", "300"),
		snap(t, "P/X", 0, "2024-07-01", "2024-01-01", "2025-01-01", "200", "50"),
	}
	out := Aggregate(snaps)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	cur := out[0]
	if cur.MonthsAgo != 0 || cur.HasDates() {
		t.Fatalf("row %d HasDates = %v, want unresolved dates at months_ago 0", cur.MonthsAgo, cur.HasDates())
	}

	// The gap propagates as NaN rather than failing.
	res := DeriveTable(out, nil)
	if len(res.Excluded) != 0 {
		t.Fatalf("Excluded = %v, want none", res.Excluded)
	}
	r := res.Records[0]
	if !math.IsNaN(r.PctTime) || !r.Conditions.Has(model.CondUnresolvedDates) {
		t.Errorf("PctTime = %v, Conditions = %v", r.PctTime, r.Conditions)
	}
}

func TestAggregate_SortedByIDThenMonths(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "B", 0, "2024-07-01", "2024-01-01", "2025-01-01", "1", "1"),
		snap(t, "A", 2, "2024-05-01", "2024-01-01", "2025-01-01", "1", "1"),
		snap(t, "A/1", 0, "2024-07-01", "", "", "1", "1"),
		snap(t, "A", 0, "2024-07-01", "2024-01-01", "2025-01-01", "1", "1"),
		snap(t, "A", 1, "2024-06-01", "2024-01-01", "2025-01-01", "1", "1"),
	}
	out := Aggregate(snaps)

	want := []struct {
		id     string
		months int
	}{{"A", 0}, {"A", 1}, {"A", 2}, {"B", 0}}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].ID() != w.id || out[i].MonthsAgo != w.months {
			t.Errorf("out[%d] = %s@%d, want %s@%d", i, out[i].ID(), out[i].MonthsAgo, w.id, w.months)
		}
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "P", 0, "2024-07-01", "2024-01-01", "2025-01-01", "0.1", "0.7"),
		snap(t, "P/A", 0, "2024-07-01", "", "", "0.2", "0.01"),
		snap(t, "P/B", 0, "2024-07-01", "", "", "0.3", "1e-9"),
		snap(t, "P/C", 0, "2024-07-01", "", "", "1234567.89", "3.3"),
		snap(t, "P", 1, "2024-06-01", "2024-01-01", "2025-01-01", "0.1", "0.2"),
		snap(t, "P/A", 1, "2024-06-01", "", "", "0.2", ""),
		snap(t, "Q", 0, "2024-07-01", "2024-02-01", "2025-02-01", "5", "1"),
	}
	base := Aggregate(snaps)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		perm := make([]model.Snapshot, len(snaps))
		for i, j := range rng.Perm(len(snaps)) {
			perm[i] = snaps[j]
		}
		got := Aggregate(perm)
		if len(got) != len(base) {
			t.Fatalf("trial %d: len = %d, want %d", trial, len(got), len(base))
		}
		for i := range got {
			if got[i].ID() != base[i].ID() || got[i].MonthsAgo != base[i].MonthsAgo {
				t.Fatalf("trial %d: row %d key differs", trial, i)
			}
			if !got[i].Budget.Decimal.Equal(base[i].Budget.Decimal) || !got[i].Work.Decimal.Equal(base[i].Work.Decimal) {
				t.Errorf("trial %d: row %d totals %v/%v, want %v/%v", trial, i,
					got[i].Budget.Decimal, got[i].Work.Decimal, base[i].Budget.Decimal, base[i].Work.Decimal)
			}
		}
	}
}

func TestAggregate_NoHierarchyMatchesDerivedTable(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "A", 0, "2024-07-01", "2024-01-01", "2025-01-01", "1000", "500"),
		snap(t, "A", 1, "2024-06-01", "2024-01-01", "2025-01-01", "1000", "300"),
		snap(t, "B", 0, "2024-07-01", "2024-03-01", "2024-09-01", "50", "0"),
	}

	plain := DeriveTable(snaps, nil).Records
	agg := DeriveTable(Aggregate(snaps), nil).Records
	if len(plain) != len(agg) {
		t.Fatalf("len = %d, want %d", len(agg), len(plain))
	}

	index := make(map[[2]any]model.Record)
	for _, r := range plain {
		index[[2]any{r.ID(), r.MonthsAgo}] = r
	}
	for _, a := range agg {
		p, ok := index[[2]any{a.ID(), a.MonthsAgo}]
		if !ok {
			t.Fatalf("aggregated row %s@%d has no plain counterpart", a.ID(), a.MonthsAgo)
		}
		if a.TotalDays != p.TotalDays || a.DaysPassed != p.DaysPassed || a.Overdue != p.Overdue {
			t.Errorf("%s@%d: day fields differ", a.ID(), a.MonthsAgo)
		}
		if !approx(a.PctTime, p.PctTime) || !approx(a.PctComplete, p.PctComplete) {
			t.Errorf("%s@%d: pct = %v/%v, want %v/%v", a.ID(), a.MonthsAgo, a.PctTime, a.PctComplete, p.PctTime, p.PctComplete)
		}
		if !a.Budget.Decimal.Equal(p.Budget.Decimal) || !a.Work.Decimal.Equal(p.Work.Decimal) {
			t.Errorf("%s@%d: amounts differ", a.ID(), a.MonthsAgo)
		}
	}
}

func TestAggregate_LeadingDelimiterKeepsOwnBase(t *testing.T) {
	got := Aggregate([]model.Snapshot{
		snap(t, "/X", 0, "2024-07-01", "2024-01-01", "2025-01-01", "10", "1"),
		snap(t, "/Y", 0, "2024-07-01", "2024-01-01", "2025-01-01", "20", "2"),
	})
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(got), got)
	}
	for i, want := range []string{"/X", "/Y"} {
		if got[i].ID() != want || got[i].Contract.BaseID != want {
			t.Errorf("row %d = %+v, want contract %q", i, got[i].Contract, want)
		}
	}
}
