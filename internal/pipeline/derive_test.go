package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/theirongolddev/burnline/internal/model"
)

func TestDerive_Percentages(t *testing.T) {
	tests := []struct {
		name         string
		snapshot     string
		start, end   string
		budget, work string
		wantTotal    int
		wantPassed   int
		wantTime     float64
		wantComplete float64
		wantOverdue  bool
	}{
		{
			name:     "mid contract, common year",
			snapshot: "2023-07-02", start: "2023-01-01", end: "2024-01-01",
			budget: "1000000", work: "500000",
			wantTotal: 365, wantPassed: 182, wantTime: 100 * 182.0 / 365, wantComplete: 50,
		},
		{
			name:     "mid contract, leap year",
			snapshot: "2024-07-01", start: "2024-01-01", end: "2025-01-01",
			budget: "1000000", work: "500000",
			wantTotal: 366, wantPassed: 182, wantTime: 100 * 182.0 / 366, wantComplete: 50,
		},
		{
			name:     "snapshot before start",
			snapshot: "2023-12-01", start: "2024-01-01", end: "2025-01-01",
			budget: "100", work: "0",
			wantTotal: 366, wantPassed: 0, wantTime: 0, wantComplete: 0,
		},
		{
			name:     "overdue and over budget",
			snapshot: "2025-07-02", start: "2024-01-01", end: "2025-01-01",
			budget: "100", work: "130",
			wantTotal: 366, wantPassed: 548, wantTime: 100 * 548.0 / 366, wantComplete: 130,
			wantOverdue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Derive(snap(t, "A", 0, tt.snapshot, tt.start, tt.end, tt.budget, tt.work))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.TotalDays != tt.wantTotal {
				t.Errorf("TotalDays = %d, want %d", r.TotalDays, tt.wantTotal)
			}
			if r.DaysPassed != tt.wantPassed {
				t.Errorf("DaysPassed = %d, want %d", r.DaysPassed, tt.wantPassed)
			}
			if !approx(r.PctTime, tt.wantTime) {
				t.Errorf("PctTime = %.4f, want %.4f", r.PctTime, tt.wantTime)
			}
			if !approx(r.PctComplete, tt.wantComplete) {
				t.Errorf("PctComplete = %.4f, want %.4f", r.PctComplete, tt.wantComplete)
			}
			if r.Overdue != tt.wantOverdue {
				t.Errorf("Overdue = %v, want %v", r.Overdue, tt.wantOverdue)
			}
			if r.Conditions != 0 {
				t.Errorf("Conditions = %v, want none", r.Conditions)
			}
		})
	}
}

func TestDerive_CommonYearScenario(t *testing.T) {
	r, err := Derive(snap(t, "A", 0, "2023-07-02", "2023-01-01", "2024-01-01", "1000000", "500000"))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.PctTime-49.86) > 0.005 {
		t.Errorf("PctTime = %.4f, want ~49.86", r.PctTime)
	}
}

func TestDerive_UndefinedCompletion(t *testing.T) {
	tests := []struct {
		name, budget, work string
	}{
		{"zero budget", "0", "10"},
		{"missing budget", "", "10"},
		{"missing work", "100", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Derive(snap(t, "A", 0, "2024-07-01", "2024-01-01", "2025-01-01", tt.budget, tt.work))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !math.IsNaN(r.PctComplete) {
				t.Errorf("PctComplete = %v, want NaN", r.PctComplete)
			}
			if !r.Conditions.Has(model.CondUndefinedCompletion) {
				t.Errorf("Conditions = %v, want undefined_completion", r.Conditions)
			}
			if math.IsNaN(r.PctTime) {
				t.Error("PctTime should still be defined")
			}
		})
	}
}

func TestDerive_MalformedDateRange(t *testing.T) {
	for _, end := range []string{"2023-12-31", "2024-01-01"} {
		r, err := Derive(snap(t, "A", 0, "2024-07-01", "2024-01-01", end, "100", "10"))
		if !errors.Is(err, ErrMalformedDateRange) {
			t.Fatalf("end %s: err = %v, want ErrMalformedDateRange", end, err)
		}
		if !math.IsNaN(r.PctTime) || !r.Conditions.Has(model.CondMalformedDateRange) {
			t.Errorf("end %s: PctTime = %v, Conditions = %v", end, r.PctTime, r.Conditions)
		}
	}
}

func TestDerive_UnresolvedDates(t *testing.T) {
	r, err := Derive(snap(t, "P", 0, "2024-07-01", "", "", "1000", "100"))
	if err != nil {
		t.Fatalf("unresolved dates must not be an error: %v", err)
	}
	if !math.IsNaN(r.PctTime) || r.Overdue {
		t.Errorf("PctTime = %v, Overdue = %v, want NaN and false", r.PctTime, r.Overdue)
	}
	if !r.Conditions.Has(model.CondUnresolvedDates) {
		t.Errorf("Conditions = %v, want unresolved_dates", r.Conditions)
	}
	if !approx(r.PctComplete, 10) {
		t.Errorf("PctComplete = %v, want 10", r.PctComplete)
	}
}

func TestDeriveTable_ExcludesMalformedContracts(t *testing.T) {
	snaps := []model.Snapshot{
		snap(t, "A", 1, "2024-06-01", "2024-01-01", "2025-01-01", "100", "10"),
		snap(t, "B", 1, "2024-06-01", "2024-01-01", "2025-01-01", "100", "10"),
		snap(t, "B", 0, "2024-07-01", "2025-01-01", "2024-01-01", "100", "20"),
		snap(t, "A", 0, "2024-07-01", "2024-01-01", "2025-01-01", "100", "20"),
	}

	res := DeriveTable(snaps, nil)
	if len(res.Excluded) != 1 || res.Excluded[0] != "B" {
		t.Fatalf("Excluded = %v, want [B]", res.Excluded)
	}
	if len(res.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(res.Records))
	}
	for _, r := range res.Records {
		if r.ID() != "A" {
			t.Errorf("record for %s should have been excluded", r.ID())
		}
	}
	if res.Records[0].MonthsAgo != 1 || res.Records[1].MonthsAgo != 0 {
		t.Error("DeriveTable must keep input order")
	}
}

func TestDeriveTable_DaysPassedNeverNegative(t *testing.T) {
	var snaps []model.Snapshot
	for _, d := range []string{"2023-01-01", "2023-12-31", "2024-01-01", "2024-06-15", "2026-01-01"} {
		snaps = append(snaps, snap(t, "A", 0, d, "2024-01-01", "2025-01-01", "1", "1"))
	}
	for _, r := range DeriveTable(snaps, nil).Records {
		if r.DaysPassed < 0 || r.PctTime < 0 {
			t.Errorf("snapshot %s: DaysPassed = %d, PctTime = %v", r.SnapshotDate.Format("2006-01-02"), r.DaysPassed, r.PctTime)
		}
	}
}
