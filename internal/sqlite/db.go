package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The schema is small enough to live
// in code; a migration tool can take over once versioned changes exist.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    app_name TEXT NOT NULL,
    description TEXT,
    package_name TEXT NOT NULL,
    source_mode TEXT NOT NULL CHECK(source_mode IN ('url-wrapped', 'template-generated')),
    website_url TEXT,
    theme_color TEXT,
    bottom_nav_enabled INTEGER NOT NULL DEFAULT 0,
    icon_path TEXT,
    splash_path TEXT,
    splash_enabled INTEGER NOT NULL DEFAULT 0,
    keystore_path TEXT,
    keystore_password TEXT,
    key_alias TEXT,
    key_password TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_tenant_projects ON projects(tenant_id);

-- Template pages, ordered by position
CREATE TABLE template_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    page_kind TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_project_pages ON template_pages(project_id);

-- Build attempts. Rows only ever gain log text and move forward through
-- their status lifecycle; terminal rows are immutable.
CREATE TABLE builds (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    build_type TEXT NOT NULL CHECK(build_type IN ('apk', 'aab')),
    version_code INTEGER NOT NULL DEFAULT 1,
    version_name TEXT NOT NULL DEFAULT '1.0.0',
    build_status TEXT NOT NULL CHECK(build_status IN ('queued', 'building', 'success', 'failed')),
    build_log TEXT NOT NULL DEFAULT '',
    artifact_path TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_tenant_builds ON builds(tenant_id);
CREATE INDEX idx_project_builds ON builds(project_id);
CREATE INDEX idx_build_status ON builds(build_status);

-- Activity log
CREATE TABLE activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    build_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_tenant_activity ON activity_log(tenant_id);
CREATE INDEX idx_project_activity ON activity_log(project_id);
CREATE INDEX idx_build_activity ON activity_log(build_id);
CREATE INDEX idx_created_at ON activity_log(created_at);

-- API keys for authentication
CREATE TABLE api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX idx_tenant_keys ON api_keys(tenant_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
