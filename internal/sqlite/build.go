package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/repository"
)

// BuildRepository implements repository.BuildRepository for SQLite
type BuildRepository struct {
	db *DB
}

// NewBuildRepository creates a new BuildRepository
func NewBuildRepository(db *DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// Create inserts a new build record
func (r *BuildRepository) Create(ctx context.Context, tenantID string, b *build.Build) error {
	query := `
		INSERT INTO builds (
			id, tenant_id, project_id, build_type, version_code, version_name,
			build_status, build_log, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		tenantID,
		b.ProjectID,
		string(b.Kind),
		b.VersionCode,
		b.VersionName,
		string(b.Status),
		b.Log,
		b.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create build: %w", err)
	}
	return nil
}

// Get retrieves a build by ID
func (r *BuildRepository) Get(ctx context.Context, tenantID, id string) (*build.Build, error) {
	query := `
		SELECT id, tenant_id, project_id, build_type, version_code, version_name,
		       build_status, build_log, artifact_path, created_at, completed_at
		FROM builds
		WHERE id = ? AND tenant_id = ?
	`
	b, err := scanBuild(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return b, nil
}

// ListByProject retrieves a project's builds, newest first
func (r *BuildRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]build.Build, error) {
	query := `
		SELECT id, tenant_id, project_id, build_type, version_code, version_name,
		       build_status, build_log, artifact_path, created_at, completed_at
		FROM builds
		WHERE project_id = ? AND tenant_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []build.Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// AppendLog appends text to the build log. The log only ever grows.
func (r *BuildRepository) AppendLog(ctx context.Context, tenantID, id, text string) error {
	query := `
		UPDATE builds
		SET build_log = build_log || ?
		WHERE id = ? AND tenant_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, text, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to append build log: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Transition moves a build to a new status. The UPDATE is guarded by
// the expected current status so a terminal record can never be
// rewritten, even under concurrent writers.
func (r *BuildRepository) Transition(ctx context.Context, tenantID, id string, status build.Status, artifactPath *string) error {
	current, err := r.currentStatus(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !build.CanTransition(current, status) {
		return repository.ErrConflict
	}

	var completedAt *time.Time
	if status.Terminal() {
		now := time.Now()
		completedAt = &now
	}

	query := `
		UPDATE builds
		SET build_status = ?,
		    artifact_path = COALESCE(?, artifact_path),
		    completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND tenant_id = ?
		  AND build_status = ?
		  AND build_status NOT IN ('success', 'failed')
	`
	result, err := r.db.ExecContext(ctx, query, string(status), artifactPath, completedAt, id, tenantID, string(current))
	if err != nil {
		return fmt.Errorf("failed to transition build: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		// Lost a race with another writer.
		return repository.ErrConflict
	}
	return nil
}

func (r *BuildRepository) currentStatus(ctx context.Context, tenantID, id string) (build.Status, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT build_status FROM builds WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get build status: %w", err)
	}
	return build.Status(status), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*build.Build, error) {
	var b build.Build
	var kind, status string
	var artifactPath sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&b.ID,
		&b.TenantID,
		&b.ProjectID,
		&kind,
		&b.VersionCode,
		&b.VersionName,
		&status,
		&b.Log,
		&artifactPath,
		&b.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Kind = build.Kind(kind)
	b.Status = build.Status(status)
	if artifactPath.Valid {
		b.ArtifactPath = &artifactPath.String
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return &b, nil
}
