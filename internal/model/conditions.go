package model

import "strings"

// Condition is a set of non-fatal data-quality flags attached to a record or trajectory.
type Condition uint8

const (
	CondUndefinedCompletion Condition = 1 << iota
	CondMalformedDateRange
	CondUnresolvedDates
	CondUndefinedSlope
	CondDuplicateSnapshot
	CondNoCurrentSnapshot
)

var conditionNames = []struct {
	c    Condition
	name string
}{
	{CondUndefinedCompletion, "undefined_completion"},
	{CondMalformedDateRange, "malformed_date_range"},
	{CondUnresolvedDates, "unresolved_dates"},
	{CondUndefinedSlope, "undefined_slope"},
	{CondDuplicateSnapshot, "duplicate_snapshot"},
	{CondNoCurrentSnapshot, "no_current_snapshot"},
}

// Has reports whether every flag in o is set.
func (c Condition) Has(o Condition) bool { return c&o == o }

// Names returns the flag names in declaration order.
func (c Condition) Names() []string {
	var names []string
	for _, cn := range conditionNames {
		if c.Has(cn.c) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Condition) String() string {
	return strings.Join(c.Names(), ",")
}
