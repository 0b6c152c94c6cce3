package config

import (
	"fmt"
	"strings"
)

// Columns maps each snapshot field to its header name in the input file.
type Columns struct {
	ContractID   string `toml:"contract_id"`
	MonthsAgo    string `toml:"months_ago"`
	SnapshotDate string `toml:"snapshot_date"`
	StartDate    string `toml:"start_date"`
	EndDate      string `toml:"end_date"`
	Budget       string `toml:"budget"`
	WorkDone     string `toml:"work_done"`
}

// DefaultColumns returns the built-in header names.
func DefaultColumns() Columns {
	return Columns{
		ContractID:   "contract_id",
		MonthsAgo:    "months_ago",
		SnapshotDate: "snapshot_date",
		StartDate:    "start_date",
		EndDate:      "end_date",
		Budget:       "budget",
		WorkDone:     "work_done",
	}
}

// Fields returns (field, header) pairs in a fixed order.
func (c Columns) Fields() [][2]string {
	return [][2]string{
		{"contract_id", c.ContractID},
		{"months_ago", c.MonthsAgo},
		{"snapshot_date", c.SnapshotDate},
		{"start_date", c.StartDate},
		{"end_date", c.EndDate},
		{"budget", c.Budget},
		{"work_done", c.WorkDone},
	}
}

// Validate rejects empty or duplicated header names.
func (c Columns) Validate() error {
	seen := make(map[string]string, 7)
	for _, f := range c.Fields() {
		name := strings.ToLower(strings.TrimSpace(f[1]))
		if name == "" {
			return fmt.Errorf("input.columns.%s is empty", f[0])
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("input.columns.%s and input.columns.%s both map to %q", other, f[0], f[1])
		}
		seen[name] = f[0]
	}
	return nil
}
