// Package export writes analysis results as CSV, JSON or YAML tables.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a name such as "csv" or "yml" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }

// WriteRecords writes derived records, one row per snapshot.
func WriteRecords(w io.Writer, f Format, records []model.Record) error {
	rows := make([]recordRow, len(records))
	for i, r := range records {
		rows[i] = newRecordRow(r)
	}
	return write(w, f, recordHeader, rows)
}

// WriteTrajectories writes one row per contract.
func WriteTrajectories(w io.Writer, f Format, trajectories []model.Trajectory) error {
	rows := make([]trajectoryRow, len(trajectories))
	for i, t := range trajectories {
		rows[i] = newTrajectoryRow(t)
	}
	return write(w, f, trajectoryHeader, rows)
}

// WriteCurves writes every resampled point of every curve in long format.
func WriteCurves(w io.Writer, f Format, curves []model.Curve) error {
	var rows []curveRow
	for _, c := range curves {
		rows = append(rows, curveRows(c)...)
	}
	if rows == nil {
		rows = []curveRow{}
	}
	return write(w, f, curveHeader, rows)
}

// WriteAll writes records, trajectories and curves into dir as
// records.<ext>, trajectories.<ext> and curves.<ext>. It returns the paths
// written.
func WriteAll(dir string, f Format, res *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"records", func(w io.Writer) error { return WriteRecords(w, f, res.Records) }},
		{"trajectories", func(w io.Writer) error { return WriteTrajectories(w, f, res.Trajectories) }},
		{"curves", func(w io.Writer) error { return WriteCurves(w, f, res.Curves) }},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name+"."+f.Ext())
		if err := writeFile(path, t.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	out, err := os.Create(path) //nolint:gosec // user-selected output path
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

type csvRow interface {
	csv() []string
}

func write[R csvRow](w io.Writer, f Format, header []string, rows []R) error {
	switch f {
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(r.csv()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
