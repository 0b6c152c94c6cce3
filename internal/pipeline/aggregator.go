package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"
)

type aggKey struct {
	base      string
	snapshot  int64 // unix seconds of the snapshot date
	monthsAgo int
}

type aggRow struct {
	snap       model.Snapshot
	budget     decimal.Decimal
	work       decimal.Decimal
	haveParent bool
}

// Aggregate collapses child contracts into their base contract, producing one
// row per (base id, snapshot date, months_ago). Budget and work are summed
// exactly with missing values counted as zero. Start and end dates come from
// the base contract's own row at the same key and stay unresolved when no such
// row exists. Output is sorted by (id, months_ago, snapshot date).
func Aggregate(snaps []model.Snapshot) []model.Snapshot {
	groups := make(map[aggKey]*aggRow)

	for _, s := range snaps {
		key := aggKey{
			base:      s.Contract.BaseID,
			snapshot:  s.SnapshotDate.Unix(),
			monthsAgo: s.MonthsAgo,
		}
		g, ok := groups[key]
		if !ok {
			g = &aggRow{snap: model.Snapshot{
				Contract:     model.ContractRef{ID: key.base, BaseID: key.base, IsParent: true},
				MonthsAgo:    s.MonthsAgo,
				SnapshotDate: s.SnapshotDate,
				Source:       s.Source,
			}}
			groups[key] = g
		}

		if s.Budget.Valid {
			g.budget = g.budget.Add(s.Budget.Decimal)
		}
		if s.Work.Valid {
			g.work = g.work.Add(s.Work.Decimal)
		}

		// Only the base contract carries an authoritative timeline.
		if s.Contract.IsParent && !g.haveParent {
			g.haveParent = true
			g.snap.StartDate = s.StartDate
			g.snap.EndDate = s.EndDate
			g.snap.Source = s.Source
		}
	}

	out := make([]model.Snapshot, 0, len(groups))
	for _, g := range groups {
		s := g.snap
		s.Budget = decimal.NullDecimal{Decimal: g.budget, Valid: true}
		s.Work = decimal.NullDecimal{Decimal: g.work, Valid: true}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Contract.ID != b.Contract.ID {
			return a.Contract.ID < b.Contract.ID
		}
		if a.MonthsAgo != b.MonthsAgo {
			return a.MonthsAgo < b.MonthsAgo
		}
		return a.SnapshotDate.Before(b.SnapshotDate)
	})

	return out
}

// FilterByContract returns the result restricted to contracts whose id
// contains substr, ignoring case.
func FilterByContract(res *Result, substr string) *Result {
	if substr == "" {
		return res
	}
	return res.filter(func(t model.Trajectory, _ []model.Record) bool {
		return containsIgnoreCase(t.ContractID, substr)
	})
}

// FilterOverdue returns the result restricted to contracts whose most recent
// snapshot is past its end date.
func FilterOverdue(res *Result) *Result {
	return res.filter(func(_ model.Trajectory, rows []model.Record) bool {
		for _, r := range rows {
			if r.MonthsAgo == 0 && r.Overdue {
				return true
			}
		}
		return false
	})
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
