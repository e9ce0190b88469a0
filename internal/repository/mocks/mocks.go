package mocks

import (
	"context"

	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, tenantID string, snap *project.Snapshot) error {
	args := m.Called(ctx, tenantID, snap)
	return args.Error(0)
}

func (m *ProjectRepository) GetSnapshot(ctx context.Context, tenantID, id string) (*project.Snapshot, error) {
	args := m.Called(ctx, tenantID, id)
	if snap, ok := args.Get(0).(*project.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) SetSigning(ctx context.Context, tenantID, id string, key *project.SigningKey) error {
	args := m.Called(ctx, tenantID, id, key)
	return args.Error(0)
}

func (m *ProjectRepository) GetSigning(ctx context.Context, tenantID, id string) (*project.SigningKey, error) {
	args := m.Called(ctx, tenantID, id)
	if key, ok := args.Get(0).(*project.SigningKey); ok {
		return key, args.Error(1)
	}
	return nil, args.Error(1)
}

// BuildRepository is a mock for repository.BuildRepository.
type BuildRepository struct {
	mock.Mock
}

func (m *BuildRepository) Create(ctx context.Context, tenantID string, b *build.Build) error {
	args := m.Called(ctx, tenantID, b)
	return args.Error(0)
}

func (m *BuildRepository) Get(ctx context.Context, tenantID, id string) (*build.Build, error) {
	args := m.Called(ctx, tenantID, id)
	if b, ok := args.Get(0).(*build.Build); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BuildRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]build.Build, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]build.Build); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BuildRepository) AppendLog(ctx context.Context, tenantID, id, text string) error {
	args := m.Called(ctx, tenantID, id, text)
	return args.Error(0)
}

func (m *BuildRepository) Transition(ctx context.Context, tenantID, id string, status build.Status, artifactPath *string) error {
	args := m.Called(ctx, tenantID, id, status, artifactPath)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
