package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    DATETIME NOT NULL,
	calendar_id   TEXT NOT NULL,
	quarter_start DATETIME NOT NULL,
	quarter_end   DATETIME NOT NULL,
	output_path   TEXT NOT NULL DEFAULT '',
	found         INTEGER NOT NULL DEFAULT 0,
	waiting       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS report_rows (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	event_title TEXT NOT NULL,
	event_date  TEXT NOT NULL,
	branch_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_report_rows_branch ON report_rows(branch_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
