package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/model"
)

// Sentinel causes wrapped by ParseError.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyValue    = errors.New("empty required value")
	ErrInvalidValue  = errors.New("invalid value")
)

// ParseError reports a malformed input row. It aborts the load.
type ParseError struct {
	File   string
	Row    int    // 1-based line in the file, 0 for header problems
	Column string // header name of the offending cell
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row == 0:
		return fmt.Sprintf("%s: column %q: %v", e.File, e.Column, e.Err)
	case e.Value == "":
		return fmt.Sprintf("%s:%d: column %q: %v", e.File, e.Row, e.Column, e.Err)
	default:
		return fmt.Sprintf("%s:%d: column %q: %v %q", e.File, e.Row, e.Column, e.Err, e.Value)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// DiscoveredFile is a snapshot table found on disk.
type DiscoveredFile struct {
	Path string
	Name string // base name, used in messages
}

// ParseOptions controls how a snapshot table is read.
type ParseOptions struct {
	Columns    config.Columns
	DateLayout string
	Delimiter  string // contract hierarchy delimiter
}

// OptionsFromConfig builds ParseOptions from the input section of cfg.
func OptionsFromConfig(cfg config.Config) ParseOptions {
	return ParseOptions{
		Columns:    cfg.Input.Columns,
		DateLayout: cfg.Input.DateLayout,
		Delimiter:  cfg.Input.Delimiter,
	}
}

// ParseResult holds the output of parsing a single file.
type ParseResult struct {
	Snapshots []model.Snapshot
	Err       error
}

// Fingerprint identifies the options that affect parsed output.
func (o ParseOptions) Fingerprint() string {
	var b strings.Builder
	for _, f := range o.Columns.Fields() {
		b.WriteString(strings.ToLower(strings.TrimSpace(f[1])))
		b.WriteByte(0x1f)
	}
	b.WriteString(o.DateLayout)
	b.WriteByte(0x1f)
	b.WriteString(o.Delimiter)
	return b.String()
}
