package project_test

import (
	"context"
	"testing"

	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository"
	"github.com/rpggio/appforge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingEvictor struct {
	evicted []string
}

func (e *recordingEvictor) Evict(tenantID, projectID string) {
	e.evicted = append(e.evicted, tenantID+"/"+projectID)
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, "tenant1", mock.Anything).Return(nil)

	svc := project.NewService(repo, nil, nil)
	created, err := svc.CreateProject(ctx, "tenant1", &project.Snapshot{
		AppName:     "Shop",
		PackageName: "com.example.shop",
		SourceMode:  project.ModeURLWrapped,
		WebsiteURL:  "https://shop.example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "tenant1", created.TenantID)
	require.False(t, created.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestCreateProject_InvalidRejectedBeforeStore(t *testing.T) {
	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil, nil)

	_, err := svc.CreateProject(context.Background(), "tenant1", &project.Snapshot{
		AppName:     "Shop",
		PackageName: "not a package",
		SourceMode:  project.ModeURLWrapped,
		WebsiteURL:  "https://shop.example.com",
	})
	require.ErrorIs(t, err, project.ErrInvalidPackageName)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchSnapshot_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("GetSnapshot", ctx, "tenant1", "missing").Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil)
	_, err := svc.FetchSnapshot(ctx, "tenant1", "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestSetSigning_EvictsCache(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	key := &project.SigningKey{KeystorePath: "/keys/a.jks", KeyAlias: "release"}
	repo.On("SetSigning", ctx, "tenant1", "p1", key).Return(nil)

	evictor := &recordingEvictor{}
	svc := project.NewService(repo, evictor, nil)

	require.NoError(t, svc.SetSigning(ctx, "tenant1", "p1", key))
	require.Equal(t, []string{"tenant1/p1"}, evictor.evicted)
}

func TestSetSigning_IncompleteCredential(t *testing.T) {
	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil, nil)

	err := svc.SetSigning(context.Background(), "tenant1", "p1", &project.SigningKey{KeystorePath: "/keys/a.jks"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	repo.AssertNotCalled(t, "SetSigning", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
