package model

import "math"

// Record is a snapshot with its time and completion percentages.
// Undefined percentages are NaN.
type Record struct {
	Snapshot

	TotalDays   int
	DaysPassed  int
	PctTime     float64
	PctComplete float64
	Overdue     bool
	Conditions  Condition

	// Trajectory is identical across every record of the same contract.
	Trajectory Trajectory
}

// Trajectory summarizes a contract's path from its oldest to its newest snapshot.
type Trajectory struct {
	ContractID      string
	OldestMonthsAgo int
	Snapshots       int

	X1, Y1 float64 // oldest (pct_time, pct_complete)
	X2, Y2 float64 // newest (pct_time, pct_complete)

	Slope      float64
	Angle      float64 // degrees
	Prediction float64 // completion extrapolated to 100% time
	Conditions Condition
}

// Line is the extrapolation overlay from the oldest point to 100% time.
type Line struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Line returns the overlay segment (x1,y1) -> (100, prediction).
func (t Trajectory) Line() Line {
	return Line{X1: t.X1, Y1: t.Y1, X2: 100, Y2: t.Prediction}
}

// Defined reports whether slope, angle and prediction were computed.
func (t Trajectory) Defined() bool {
	return !math.IsNaN(t.Slope) && !math.IsNaN(t.Prediction)
}

// CurvePoint is one resampled point of a smoothed trajectory.
type CurvePoint struct {
	Index       int
	PctTime     float64
	PctComplete float64
	MonthsAgo   float64
	Thickness   float64
}

// Curve is the dense rendering path for one contract.
type Curve struct {
	ContractID string
	Smoothed   bool // false when the raw points were passed through
	Points     []CurvePoint
}
