package pipeline

import (
	"log/slog"
	"math"

	"github.com/theirongolddev/burnline/internal/model"
)

// AnalyzeTrajectory summarizes one contract's rows, which must already be in
// analysis order (months_ago ascending). The oldest point is the first row at
// the largest months_ago and the newest is the first row at months_ago 0.
func AnalyzeTrajectory(id string, rows []model.Record, logger *slog.Logger) model.Trajectory {
	if logger == nil {
		logger = discardLogger()
	}
	nan := math.NaN()
	t := model.Trajectory{
		ContractID: id,
		Snapshots:  len(rows),
		X1:         nan, Y1: nan,
		X2: nan, Y2: nan,
		Slope: nan, Angle: nan, Prediction: nan,
	}
	if len(rows) == 0 {
		t.Conditions |= model.CondNoCurrentSnapshot | model.CondUndefinedSlope
		return t
	}

	oldest, newest, duplicates := -1, -1, 0
	for i, r := range rows {
		if oldest < 0 || r.MonthsAgo > rows[oldest].MonthsAgo {
			oldest = i
		}
		if r.MonthsAgo == 0 {
			if newest < 0 {
				newest = i
			} else {
				duplicates++
			}
		}
	}

	t.OldestMonthsAgo = rows[oldest].MonthsAgo
	t.X1, t.Y1 = rows[oldest].PctTime, rows[oldest].PctComplete

	if duplicates > 0 {
		t.Conditions |= model.CondDuplicateSnapshot
		logger.Warn("duplicate current snapshot, using first",
			slog.String("contract", id), slog.Int("duplicates", duplicates))
	}
	if newest < 0 {
		t.Conditions |= model.CondNoCurrentSnapshot | model.CondUndefinedSlope
		logger.Warn("contract has no current snapshot", slog.String("contract", id))
		return t
	}
	t.X2, t.Y2 = rows[newest].PctTime, rows[newest].PctComplete

	dx := t.X2 - t.X1
	if t.OldestMonthsAgo == 0 || dx == 0 || math.IsNaN(dx) || math.IsNaN(t.Y2-t.Y1) {
		t.Conditions |= model.CondUndefinedSlope
		logger.Debug("slope undefined", slog.String("contract", id), slog.Int("snapshots", len(rows)))
		return t
	}

	t.Slope = (t.Y2 - t.Y1) / dx
	t.Angle = math.Atan(t.Slope) * 180 / math.Pi
	t.Prediction = t.Y2 + t.Slope*(100-t.X2)
	return t
}
