package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"
	"gopkg.in/yaml.v3"
)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func amount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// sample holds one defined contract (A) and one with a missing budget (B).
func sample() *pipeline.Result {
	mk := func(id string, months int, snapshot, budget, work string) model.Snapshot {
		return model.Snapshot{
			Contract:     model.ParseContractID(id, "/"),
			MonthsAgo:    months,
			SnapshotDate: day(snapshot),
			StartDate:    day("2023-01-01"),
			EndDate:      day("2024-01-01"),
			Budget:       amount(budget),
			Work:         amount(work),
		}
	}
	return pipeline.Run([]model.Snapshot{
		mk("A", 1, "2023-03-01", "100", "10"),
		mk("A", 0, "2023-07-01", "100", "40"),
		mk("B", 0, "2023-07-01", "", "5"),
	}, pipeline.Options{Smooth: pipeline.DefaultSmoothOptions()})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", CSV},
		{"JSON", JSON},
		{"yml", YAML},
		{" yaml ", YAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestWriteRecords_JSONNullsForUndefined(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, JSON, sample().Records); err != nil {
		t.Fatal(err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	b := rows[2]
	if b["contract_id"] != "B" {
		t.Fatalf("row order: %v", rows)
	}
	for _, key := range []string{"budget", "pct_complete", "slope", "prediction"} {
		if v, ok := b[key]; !ok || v != nil {
			t.Errorf("B %s = %v, want null", key, v)
		}
	}
	if conds, _ := b["conditions"].([]any); len(conds) == 0 || conds[0] != "undefined_completion" {
		t.Errorf("B conditions = %v", b["conditions"])
	}

	a := rows[0]
	if a["budget"] != "100" || a["pct_complete"] == nil || a["slope"] == nil {
		t.Errorf("A row = %v", a)
	}
	if conds, ok := a["conditions"].([]any); !ok || len(conds) != 0 {
		t.Errorf("A conditions = %v, want empty list", a["conditions"])
	}
}

func TestWriteTrajectories_CSVEmptyCells(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrajectories(&buf, CSV, sample().Trajectories); err != nil {
		t.Fatal(err)
	}

	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d lines, want header + 2", len(recs))
	}
	col := make(map[string]int)
	for i, h := range recs[0] {
		col[h] = i
	}

	a, b := recs[1], recs[2]
	if a[col["contract_id"]] != "A" || a[col["line_x2"]] != "100" {
		t.Errorf("A = %v", a)
	}
	if a[col["angle"]] == "" || a[col["prediction"]] == "" {
		t.Errorf("A overlay missing: %v", a)
	}
	for _, key := range []string{"y1", "slope", "angle", "prediction", "line_x2", "line_y2"} {
		if b[col[key]] != "" {
			t.Errorf("B %s = %q, want empty", key, b[col[key]])
		}
	}
	if !strings.Contains(b[col["conditions"]], "undefined_slope") {
		t.Errorf("B conditions = %q", b[col["conditions"]])
	}
}

func TestWriteCurves_YAML(t *testing.T) {
	res := sample()
	var buf bytes.Buffer
	if err := WriteCurves(&buf, YAML, res.Curves); err != nil {
		t.Fatal(err)
	}

	var rows []curveRow
	if err := yaml.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	want := 0
	for _, c := range res.Curves {
		want += len(c.Points)
	}
	if len(rows) != want {
		t.Fatalf("got %d points, want %d", len(rows), want)
	}
	prev := math.Inf(-1)
	for _, r := range rows {
		if r.ContractID != "A" {
			continue
		}
		if !r.Smoothed || r.PctComplete < prev {
			t.Fatalf("A point %d = %+v, want smoothed non-decreasing", r.Index, r)
		}
		prev = r.PctComplete
	}
}

func TestWriteRecords_YAMLNull(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, YAML, sample().Records[2:]); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "pct_complete: null") {
		t.Errorf("YAML output lacks null marker:\n%s", buf.String())
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	for _, f := range []Format{CSV, JSON, YAML} {
		paths, err := WriteAll(dir, f, sample())
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if len(paths) != 3 {
			t.Fatalf("%s: wrote %v", f, paths)
		}
		for _, name := range []string{"records", "trajectories", "curves"} {
			info, err := os.Stat(filepath.Join(dir, name+"."+f.Ext()))
			if err != nil || info.Size() == 0 {
				t.Errorf("%s.%s missing or empty: %v", name, f.Ext(), err)
			}
		}
	}
}
