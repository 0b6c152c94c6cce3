package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    fingerprint          TEXT NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    row_num              INTEGER NOT NULL,
    contract_id          TEXT NOT NULL,
    base_id              TEXT NOT NULL,
    is_parent            INTEGER NOT NULL,
    months_ago           INTEGER NOT NULL,
    snapshot_date        TEXT NOT NULL,
    start_date           TEXT,
    end_date             TEXT,
    budget               TEXT,
    work_done            TEXT,
    PRIMARY KEY (file_path, row_num)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_contract ON snapshots(base_id);
`
