package pipeline

import (
	"math"
	"sort"

	"github.com/theirongolddev/burnline/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// SmoothOptions controls curve resampling.
type SmoothOptions struct {
	Points       int
	ThicknessMin float64
	ThicknessMax float64
}

// DefaultSmoothOptions returns a 100-point resampling with weights in [1, 6].
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{Points: 100, ThicknessMin: 1, ThicknessMax: 6}
}

type curveSample struct {
	x, y, months float64
}

// Smooth resamples one contract's (pct_time, pct_complete) series into a dense
// curve whose completion never decreases. Rows with undefined coordinates are
// ignored. With fewer than two distinct pct_time values the remaining points
// are returned unchanged and Smoothed is false.
func Smooth(id string, rows []model.Record, opts SmoothOptions) model.Curve {
	if opts.Points < 2 {
		opts.Points = DefaultSmoothOptions().Points
	}

	var pts []curveSample
	for _, r := range rows {
		if math.IsNaN(r.PctTime) || math.IsNaN(r.PctComplete) {
			continue
		}
		pts = append(pts, curveSample{x: r.PctTime, y: r.PctComplete, months: float64(r.MonthsAgo)})
	}
	// Chronological: oldest snapshot first.
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].months > pts[j].months })

	curve := model.Curve{ContractID: id}
	if len(pts) == 0 {
		return curve
	}

	mMin, mMax := pts[len(pts)-1].months, pts[0].months
	weight := func(m float64) float64 {
		return thickness(m, mMin, mMax, opts)
	}

	raw := func() model.Curve {
		curve.Points = make([]model.CurvePoint, len(pts))
		for i, p := range pts {
			curve.Points[i] = model.CurvePoint{
				Index: i, PctTime: p.x, PctComplete: p.y, MonthsAgo: p.months, Thickness: weight(p.months),
			}
		}
		return curve
	}

	xs, ys, ms := monotoneKnots(pts)
	if len(xs) < 2 {
		return raw()
	}

	var completion interp.FritschButland
	if err := completion.Fit(xs, ys); err != nil {
		return raw()
	}
	var recency interp.PiecewiseLinear
	if err := recency.Fit(xs, ms); err != nil {
		return raw()
	}

	grid := floats.Span(make([]float64, opts.Points), xs[0], xs[len(xs)-1])
	grid[len(grid)-1] = xs[len(xs)-1]

	curve.Smoothed = true
	curve.Points = make([]model.CurvePoint, len(grid))
	prev := math.Inf(-1)
	for i, x := range grid {
		y := completion.Predict(x)
		if y < prev {
			y = prev
		}
		prev = y
		m := recency.Predict(x)
		curve.Points[i] = model.CurvePoint{
			Index: i, PctTime: x, PctComplete: y, MonthsAgo: m, Thickness: weight(m),
		}
	}
	return curve
}

// monotoneKnots orders chronological samples by pct_time, applies a running
// maximum to completion and collapses equal pct_time values into the most
// recent sample, leaving strictly increasing knots.
func monotoneKnots(chrono []curveSample) (xs, ys, ms []float64) {
	pts := make([]curveSample, len(chrono))
	copy(pts, chrono)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	best := math.Inf(-1)
	for _, p := range pts {
		best = math.Max(best, p.y)
		if n := len(xs); n > 0 && xs[n-1] == p.x {
			ys[n-1], ms[n-1] = best, p.months
			continue
		}
		xs = append(xs, p.x)
		ys = append(ys, best)
		ms = append(ms, p.months)
	}
	return xs, ys, ms
}

// thickness maps months_ago onto the weight range, recent snapshots thickest.
func thickness(m, mMin, mMax float64, opts SmoothOptions) float64 {
	if mMax == mMin {
		return opts.ThicknessMax
	}
	frac := (m - mMin) / (mMax - mMin)
	return opts.ThicknessMax - frac*(opts.ThicknessMax-opts.ThicknessMin)
}
