package repository

import (
	"context"

	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
)

// ProjectRepository manages project persistence
type ProjectRepository interface {
	Create(ctx context.Context, tenantID string, snap *project.Snapshot) error
	GetSnapshot(ctx context.Context, tenantID, id string) (*project.Snapshot, error)
	SetSigning(ctx context.Context, tenantID, id string, key *project.SigningKey) error
	// GetSigning returns the project's signing credential, or nil when the
	// project builds with a debug identity.
	GetSigning(ctx context.Context, tenantID, id string) (*project.SigningKey, error)
}

// BuildRepository manages build record persistence. AppendLog and
// Transition are safe to call from the asynchronous orchestration task.
type BuildRepository interface {
	Create(ctx context.Context, tenantID string, b *build.Build) error
	Get(ctx context.Context, tenantID, id string) (*build.Build, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]build.Build, error)
	// AppendLog appends text to the build's accumulated log.
	AppendLog(ctx context.Context, tenantID, id, text string) error
	// Transition moves the build to status, recording artifactPath on
	// success and the completion timestamp on terminal states. It returns
	// ErrConflict if the build is already terminal.
	Transition(ctx context.Context, tenantID, id string, status build.Status, artifactPath *string) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
	List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}
