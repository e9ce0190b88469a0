package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, db *DB, tenantID string) *project.Snapshot {
	t.Helper()
	snap := &project.Snapshot{
		ID:          uuid.NewString(),
		AppName:     "Test App",
		Description: "a test project",
		PackageName: "com.example.testapp",
		SourceMode:  project.ModeURLWrapped,
		WebsiteURL:  "https://example.com",
		CreatedAt:   time.Now(),
	}
	repo := NewProjectRepository(db)
	require.NoError(t, repo.Create(context.Background(), tenantID, snap))
	return snap
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	created := createTestProject(t, db, "tenant1")

	got, err := repo.GetSnapshot(ctx, "tenant1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "tenant1", got.TenantID)
	require.Equal(t, "Test App", got.AppName)
	require.Equal(t, project.ModeURLWrapped, got.SourceMode)
	require.Equal(t, "https://example.com", got.WebsiteURL)
	require.Nil(t, got.Signing)
	require.Empty(t, got.Pages)
}

func TestProjectRepository_TemplatePagesOrdered(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	snap := &project.Snapshot{
		ID:          uuid.NewString(),
		AppName:     "Board App",
		PackageName: "com.example.board",
		SourceMode:  project.ModeTemplateGenerated,
		CreatedAt:   time.Now(),
		Pages: []project.Page{
			{Kind: project.PageSplash, Title: "Welcome"},
			{Kind: project.PageBoard, Title: "Board", Body: "Posts"},
			{Kind: project.PageMyPage, Title: "Profile"},
		},
	}
	require.NoError(t, repo.Create(ctx, "tenant1", snap))

	got, err := repo.GetSnapshot(ctx, "tenant1", snap.ID)
	require.NoError(t, err)
	require.Len(t, got.Pages, 3)
	require.Equal(t, project.PageSplash, got.Pages[0].Kind)
	require.Equal(t, project.PageBoard, got.Pages[1].Kind)
	require.Equal(t, "Posts", got.Pages[1].Body)
	require.Equal(t, project.PageMyPage, got.Pages[2].Kind)
}

func TestProjectRepository_TenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	created := createTestProject(t, db, "tenant1")

	_, err := repo.GetSnapshot(ctx, "tenant2", created.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_Signing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	created := createTestProject(t, db, "tenant1")

	// Unset credential reads as nil, not an error.
	key, err := repo.GetSigning(ctx, "tenant1", created.ID)
	require.NoError(t, err)
	require.Nil(t, key)

	cred := &project.SigningKey{
		KeystorePath:  "/keys/release.jks",
		StorePassword: "store-pass",
		KeyAlias:      "release",
		KeyPassword:   "key-pass",
	}
	require.NoError(t, repo.SetSigning(ctx, "tenant1", created.ID, cred))

	key, err = repo.GetSigning(ctx, "tenant1", created.ID)
	require.NoError(t, err)
	require.Equal(t, cred, key)

	snap, err := repo.GetSnapshot(ctx, "tenant1", created.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Signing)
	require.Equal(t, "release", snap.Signing.KeyAlias)

	// Clearing the credential.
	require.NoError(t, repo.SetSigning(ctx, "tenant1", created.ID, nil))
	key, err = repo.GetSigning(ctx, "tenant1", created.ID)
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestProjectRepository_SetSigningMissingProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)

	err := repo.SetSigning(context.Background(), "tenant1", "missing", &project.SigningKey{})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_DuplicateID(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	created := createTestProject(t, db, "tenant1")

	err := repo.Create(ctx, "tenant1", created)
	require.ErrorIs(t, err, repository.ErrConflict)
}
