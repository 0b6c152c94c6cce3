package export

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/burnline/internal/model"
)

// recordRow is the serialized form of a derived record with its broadcast
// trajectory. Pointer fields are nil for undefined values.
type recordRow struct {
	ContractID   string   `json:"contract_id" yaml:"contract_id"`
	BaseID       string   `json:"base_id" yaml:"base_id"`
	IsParent     bool     `json:"is_parent" yaml:"is_parent"`
	MonthsAgo    int      `json:"months_ago" yaml:"months_ago"`
	SnapshotDate *string  `json:"snapshot_date" yaml:"snapshot_date"`
	StartDate    *string  `json:"start_date" yaml:"start_date"`
	EndDate      *string  `json:"end_date" yaml:"end_date"`
	Budget       *string  `json:"budget" yaml:"budget"`
	WorkDone     *string  `json:"work_done" yaml:"work_done"`
	TotalDays    *int     `json:"total_days" yaml:"total_days"`
	DaysPassed   *int     `json:"days_passed" yaml:"days_passed"`
	PctTime      *float64 `json:"pct_time" yaml:"pct_time"`
	PctComplete  *float64 `json:"pct_complete" yaml:"pct_complete"`
	Overdue      bool     `json:"overdue" yaml:"overdue"`
	Conditions   []string `json:"conditions" yaml:"conditions"`
	Slope        *float64 `json:"slope" yaml:"slope"`
	Angle        *float64 `json:"angle" yaml:"angle"`
	Prediction   *float64 `json:"prediction" yaml:"prediction"`
	X1           *float64 `json:"x1" yaml:"x1"`
	Y1           *float64 `json:"y1" yaml:"y1"`
}

var recordHeader = []string{
	"contract_id", "base_id", "is_parent", "months_ago",
	"snapshot_date", "start_date", "end_date", "budget", "work_done",
	"total_days", "days_passed", "pct_time", "pct_complete", "overdue", "conditions",
	"slope", "angle", "prediction", "x1", "y1",
}

func newRecordRow(r model.Record) recordRow {
	row := recordRow{
		ContractID:   r.Contract.ID,
		BaseID:       r.Contract.BaseID,
		IsParent:     r.Contract.IsParent,
		MonthsAgo:    r.MonthsAgo,
		SnapshotDate: date(r.SnapshotDate),
		StartDate:    date(r.StartDate),
		EndDate:      date(r.EndDate),
		PctTime:      num(r.PctTime),
		PctComplete:  num(r.PctComplete),
		Overdue:      r.Overdue,
		Conditions:   names(r.Conditions),
		Slope:        num(r.Trajectory.Slope),
		Angle:        num(r.Trajectory.Angle),
		Prediction:   num(r.Trajectory.Prediction),
		X1:           num(r.Trajectory.X1),
		Y1:           num(r.Trajectory.Y1),
	}
	if r.Budget.Valid {
		s := r.Budget.Decimal.String()
		row.Budget = &s
	}
	if r.Work.Valid {
		s := r.Work.Decimal.String()
		row.WorkDone = &s
	}
	if !r.Conditions.Has(model.CondUnresolvedDates) && !r.Conditions.Has(model.CondMalformedDateRange) {
		total, passed := r.TotalDays, r.DaysPassed
		row.TotalDays, row.DaysPassed = &total, &passed
	}
	return row
}

func (r recordRow) csv() []string {
	return []string{
		r.ContractID, r.BaseID, strconv.FormatBool(r.IsParent), strconv.Itoa(r.MonthsAgo),
		str(r.SnapshotDate), str(r.StartDate), str(r.EndDate), str(r.Budget), str(r.WorkDone),
		integer(r.TotalDays), integer(r.DaysPassed), float(r.PctTime), float(r.PctComplete),
		strconv.FormatBool(r.Overdue), joinNames(r.Conditions),
		float(r.Slope), float(r.Angle), float(r.Prediction), float(r.X1), float(r.Y1),
	}
}

// trajectoryRow carries one contract's trajectory and its overlay line.
type trajectoryRow struct {
	ContractID      string   `json:"contract_id" yaml:"contract_id"`
	Snapshots       int      `json:"snapshots" yaml:"snapshots"`
	OldestMonthsAgo int      `json:"oldest_months_ago" yaml:"oldest_months_ago"`
	X1              *float64 `json:"x1" yaml:"x1"`
	Y1              *float64 `json:"y1" yaml:"y1"`
	X2              *float64 `json:"x2" yaml:"x2"`
	Y2              *float64 `json:"y2" yaml:"y2"`
	Slope           *float64 `json:"slope" yaml:"slope"`
	Angle           *float64 `json:"angle" yaml:"angle"`
	Prediction      *float64 `json:"prediction" yaml:"prediction"`
	LineX2          *float64 `json:"line_x2" yaml:"line_x2"`
	LineY2          *float64 `json:"line_y2" yaml:"line_y2"`
	Conditions      []string `json:"conditions" yaml:"conditions"`
}

var trajectoryHeader = []string{
	"contract_id", "snapshots", "oldest_months_ago",
	"x1", "y1", "x2", "y2", "slope", "angle", "prediction",
	"line_x2", "line_y2", "conditions",
}

func newTrajectoryRow(t model.Trajectory) trajectoryRow {
	row := trajectoryRow{
		ContractID:      t.ContractID,
		Snapshots:       t.Snapshots,
		OldestMonthsAgo: t.OldestMonthsAgo,
		X1:              num(t.X1),
		Y1:              num(t.Y1),
		X2:              num(t.X2),
		Y2:              num(t.Y2),
		Slope:           num(t.Slope),
		Angle:           num(t.Angle),
		Prediction:      num(t.Prediction),
		Conditions:      names(t.Conditions),
	}
	if t.Defined() {
		line := t.Line()
		row.LineX2, row.LineY2 = num(line.X2), num(line.Y2)
	}
	return row
}

func (r trajectoryRow) csv() []string {
	return []string{
		r.ContractID, strconv.Itoa(r.Snapshots), strconv.Itoa(r.OldestMonthsAgo),
		float(r.X1), float(r.Y1), float(r.X2), float(r.Y2),
		float(r.Slope), float(r.Angle), float(r.Prediction),
		float(r.LineX2), float(r.LineY2), joinNames(r.Conditions),
	}
}

// curveRow is one resampled point of a contract's curve.
type curveRow struct {
	ContractID  string  `json:"contract_id" yaml:"contract_id"`
	Smoothed    bool    `json:"smoothed" yaml:"smoothed"`
	Index       int     `json:"index" yaml:"index"`
	PctTime     float64 `json:"pct_time" yaml:"pct_time"`
	PctComplete float64 `json:"pct_complete" yaml:"pct_complete"`
	MonthsAgo   float64 `json:"months_ago" yaml:"months_ago"`
	Thickness   float64 `json:"thickness" yaml:"thickness"`
}

var curveHeader = []string{
	"contract_id", "smoothed", "index", "pct_time", "pct_complete", "months_ago", "thickness",
}

func curveRows(c model.Curve) []curveRow {
	rows := make([]curveRow, len(c.Points))
	for i, p := range c.Points {
		rows[i] = curveRow{
			ContractID:  c.ContractID,
			Smoothed:    c.Smoothed,
			Index:       p.Index,
			PctTime:     p.PctTime,
			PctComplete: p.PctComplete,
			MonthsAgo:   p.MonthsAgo,
			Thickness:   p.Thickness,
		}
	}
	return rows
}

func (r curveRow) csv() []string {
	return []string{
		r.ContractID, strconv.FormatBool(r.Smoothed), strconv.Itoa(r.Index),
		formatFloat(r.PctTime), formatFloat(r.PctComplete), formatFloat(r.MonthsAgo), formatFloat(r.Thickness),
	}
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func date(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func names(c model.Condition) []string {
	if n := c.Names(); n != nil {
		return n
	}
	return []string{}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func integer(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func float(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNames(n []string) string {
	return strings.Join(n, ";")
}
