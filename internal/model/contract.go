// Package model defines the typed records that flow through the burnline pipeline.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDelimiter separates a parent contract from its child in an identifier.
const DefaultDelimiter = "/"

// ContractRef is a contract identifier with its hierarchy resolved.
type ContractRef struct {
	ID       string
	BaseID   string // identifier before the first delimiter
	IsParent bool   // true when the record is the base contract itself
}

// ParseContractID resolves the parent of id. An empty delimiter disables the
// hierarchy. An id that starts with the delimiter has no parent part and is
// its own base contract.
func ParseContractID(id, delim string) ContractRef {
	ref := ContractRef{ID: id, BaseID: id, IsParent: true}
	if delim == "" {
		return ref
	}
	if i := strings.Index(id, delim); i > 0 {
		ref.BaseID = id[:i]
		ref.IsParent = false
	}
	return ref
}

// SourceRef locates a snapshot in its input file.
type SourceRef struct {
	File string
	Row  int
}

// Snapshot is one observation of a contract's cumulative budget and work.
// Zero dates are unresolved; invalid decimals are missing values.
type Snapshot struct {
	Contract     ContractRef
	MonthsAgo    int
	SnapshotDate time.Time
	StartDate    time.Time
	EndDate      time.Time
	Budget       decimal.NullDecimal
	Work         decimal.NullDecimal
	Source       SourceRef
}

// ID returns the contract identifier.
func (s Snapshot) ID() string { return s.Contract.ID }

// HasDates reports whether both timeline dates are resolved.
func (s Snapshot) HasDates() bool {
	return !s.StartDate.IsZero() && !s.EndDate.IsZero()
}
