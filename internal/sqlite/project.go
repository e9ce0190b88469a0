package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a project and its template pages in one transaction
func (r *ProjectRepository) Create(ctx context.Context, tenantID string, snap *project.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (
			id, tenant_id, app_name, description, package_name, source_mode,
			website_url, theme_color, bottom_nav_enabled, icon_path,
			splash_path, splash_enabled, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		snap.ID,
		tenantID,
		snap.AppName,
		snap.Description,
		snap.PackageName,
		string(snap.SourceMode),
		snap.WebsiteURL,
		snap.ThemeColor,
		snap.BottomNavEnabled,
		snap.IconPath,
		snap.SplashPath,
		snap.SplashEnabled,
		snap.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	pageQuery := `
		INSERT INTO template_pages (project_id, page_kind, title, body, position)
		VALUES (?, ?, ?, ?, ?)
	`
	for i, page := range snap.Pages {
		if _, err := tx.ExecContext(ctx, pageQuery, snap.ID, string(page.Kind), page.Title, page.Body, i); err != nil {
			return fmt.Errorf("failed to create template page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a project with its pages and signing credential
func (r *ProjectRepository) GetSnapshot(ctx context.Context, tenantID, id string) (*project.Snapshot, error) {
	query := `
		SELECT id, tenant_id, app_name, description, package_name, source_mode,
		       website_url, theme_color, bottom_nav_enabled, icon_path,
		       splash_path, splash_enabled,
		       keystore_path, keystore_password, key_alias, key_password,
		       created_at
		FROM projects
		WHERE id = ? AND tenant_id = ?
	`

	var snap project.Snapshot
	var sourceMode string
	var keystorePath, keystorePassword, keyAlias, keyPassword sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&snap.ID,
		&snap.TenantID,
		&snap.AppName,
		&snap.Description,
		&snap.PackageName,
		&sourceMode,
		&snap.WebsiteURL,
		&snap.ThemeColor,
		&snap.BottomNavEnabled,
		&snap.IconPath,
		&snap.SplashPath,
		&snap.SplashEnabled,
		&keystorePath,
		&keystorePassword,
		&keyAlias,
		&keyPassword,
		&snap.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	snap.SourceMode = project.SourceMode(sourceMode)
	if keystorePath.Valid && keystorePath.String != "" {
		snap.Signing = &project.SigningKey{
			KeystorePath:  keystorePath.String,
			StorePassword: keystorePassword.String,
			KeyAlias:      keyAlias.String,
			KeyPassword:   keyPassword.String,
		}
	}

	pages, err := r.loadPages(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.Pages = pages

	return &snap, nil
}

func (r *ProjectRepository) loadPages(ctx context.Context, projectID string) ([]project.Page, error) {
	query := `
		SELECT page_kind, title, body
		FROM template_pages
		WHERE project_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template pages: %w", err)
	}
	defer rows.Close()

	var pages []project.Page
	for rows.Next() {
		var page project.Page
		var kind string
		if err := rows.Scan(&kind, &page.Title, &page.Body); err != nil {
			return nil, fmt.Errorf("failed to scan template page: %w", err)
		}
		page.Kind = project.PageKind(kind)
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// SetSigning stores or clears the project's signing credential
func (r *ProjectRepository) SetSigning(ctx context.Context, tenantID, id string, key *project.SigningKey) error {
	query := `
		UPDATE projects
		SET keystore_path = ?, keystore_password = ?, key_alias = ?, key_password = ?
		WHERE id = ? AND tenant_id = ?
	`
	var path, storePassword, alias, keyPassword any
	if key != nil {
		path, storePassword, alias, keyPassword = key.KeystorePath, key.StorePassword, key.KeyAlias, key.KeyPassword
	}

	result, err := r.db.ExecContext(ctx, query, path, storePassword, alias, keyPassword, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to set signing credential: %w", err)
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

// GetSigning retrieves only the signing credential, nil when unset
func (r *ProjectRepository) GetSigning(ctx context.Context, tenantID, id string) (*project.SigningKey, error) {
	query := `
		SELECT keystore_path, keystore_password, key_alias, key_password
		FROM projects
		WHERE id = ? AND tenant_id = ?
	`
	var keystorePath, keystorePassword, keyAlias, keyPassword sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&keystorePath, &keystorePassword, &keyAlias, &keyPassword,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signing credential: %w", err)
	}
	if !keystorePath.Valid || keystorePath.String == "" {
		return nil, nil
	}
	return &project.SigningKey{
		KeystorePath:  keystorePath.String,
		StorePassword: keystorePassword.String,
		KeyAlias:      keyAlias.String,
		KeyPassword:   keyPassword.String,
	}, nil
}
