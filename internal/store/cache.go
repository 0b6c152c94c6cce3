// Package store provides a SQLite-backed cache of parsed snapshot tables.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/burnline/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dateLayout = time.RFC3339Nano

// Cache provides SQLite-backed snapshot caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo identifies the parsed state of a file.
type FileInfo struct {
	MtimeNs     int64
	SizeBytes   int64
	Fingerprint string // parse options the file was read with
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, fingerprint FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.Fingerprint); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces the cached snapshots of one file and its tracking info.
func (c *Cache) SaveFile(path string, fi FileInfo, snaps []model.Snapshot) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, fingerprint, parsed_at)
		VALUES (?, ?, ?, ?, ?)`,
		path, fi.MtimeNs, fi.SizeBytes, fi.Fingerprint, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM snapshots WHERE file_path = ?", path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshots
		(file_path, row_num, contract_id, base_id, is_parent, months_ago,
		 snapshot_date, start_date, end_date, budget, work_done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range snaps {
		isParent := 0
		if s.Contract.IsParent {
			isParent = 1
		}
		_, err = stmt.Exec(
			path, s.Source.Row, s.Contract.ID, s.Contract.BaseID, isParent, s.MonthsAgo,
			formatDate(s.SnapshotDate), formatDate(s.StartDate), formatDate(s.EndDate),
			s.Budget, s.Work,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadAllSnapshots reads all cached snapshots grouped by file, in row order.
func (c *Cache) LoadAllSnapshots() (map[string][]model.Snapshot, error) {
	rows, err := c.db.Query(`SELECT
		file_path, row_num, contract_id, base_id, is_parent, months_ago,
		snapshot_date, start_date, end_date, budget, work_done
		FROM snapshots ORDER BY file_path, row_num`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string][]model.Snapshot)
	for rows.Next() {
		var s model.Snapshot
		var snapStr string
		var startStr, endStr sql.NullString
		var isParent int
		var budget, work decimal.NullDecimal

		err := rows.Scan(
			&s.Source.File, &s.Source.Row, &s.Contract.ID, &s.Contract.BaseID, &isParent, &s.MonthsAgo,
			&snapStr, &startStr, &endStr, &budget, &work,
		)
		if err != nil {
			return nil, err
		}

		s.Contract.IsParent = isParent != 0
		if s.SnapshotDate, err = parseDate(snapStr); err != nil {
			return nil, fmt.Errorf("cached snapshot_date %q: %w", snapStr, err)
		}
		if s.StartDate, err = parseDate(startStr.String); err != nil {
			return nil, fmt.Errorf("cached start_date %q: %w", startStr.String, err)
		}
		if s.EndDate, err = parseDate(endStr.String); err != nil {
			return nil, fmt.Errorf("cached end_date %q: %w", endStr.String, err)
		}
		s.Budget = budget
		s.Work = work

		result[s.Source.File] = append(result[s.Source.File], s)
	}
	return result, rows.Err()
}

// DeleteFile removes a tracked file and its snapshots.
func (c *Cache) DeleteFile(path string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", path)
	return err
}

// SnapshotCount returns the number of cached snapshots.
func (c *Cache) SnapshotCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
