package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository/repoerr"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Repository is the persistence surface the build service needs. It is
// structurally identical to repository.BuildRepository, declared locally
// so this package does not import repository, which imports this package
// for its interface types.
type Repository interface {
	Create(ctx context.Context, tenantID string, b *Build) error
	Get(ctx context.Context, tenantID, id string) (*Build, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]Build, error)
	AppendLog(ctx context.Context, tenantID, id, text string) error
	Transition(ctx context.Context, tenantID, id string, status Status, artifactPath *string) error
}

// SnapshotProvider supplies the immutable project view a build runs against.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, tenantID, id string) (*project.Snapshot, error)
}

// Orchestrator runs one build attempt to a terminal state. It owns every
// mutation of the build record after creation.
type Orchestrator interface {
	Run(ctx context.Context, b *Build, snap *project.Snapshot) error
}

// Ticket is the handle for a dispatched build. The HTTP layer discards it;
// tests use Done to await orchestration without polling.
type Ticket struct {
	BuildID string
	done    chan struct{}
}

// Done is closed when the build attempt reaches a terminal state.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// RequestOptions are the caller-supplied build parameters.
type RequestOptions struct {
	Kind        string
	VersionCode int
	VersionName string
}

// Service dispatches build attempts and serves build reads. Dispatch is
// fire-and-forget: Request returns as soon as the record exists, and the
// attempt runs on a detached, service-scoped context.
type Service struct {
	builds     Repository
	snapshots  SnapshotProvider
	orch       Orchestrator
	activities *activity.Service
	logger     *slog.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a build service. maxConcurrent bounds simultaneous
// attempts; zero or negative means unbounded.
func NewService(
	builds Repository,
	snapshots SnapshotProvider,
	orch Orchestrator,
	activities *activity.Service,
	logger *slog.Logger,
	maxConcurrent int64,
) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	var sem *semaphore.Weighted
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(maxConcurrent)
	}
	return &Service{
		builds:     builds,
		snapshots:  snapshots,
		orch:       orch,
		activities: activities,
		logger:     logger,
		sem:        sem,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close stops accepting orchestration work and waits for in-flight
// attempts to observe cancellation.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Request validates the build parameters, creates the build record in the
// queued state, and schedules the orchestrator without awaiting it. An
// unknown artifact kind is rejected before any record is created.
func (s *Service) Request(ctx context.Context, tenantID, projectID string, opts RequestOptions) (*Ticket, error) {
	kind, err := ParseKind(opts.Kind)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.FetchSnapshot(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	versionCode := opts.VersionCode
	if versionCode < 1 {
		versionCode = 1
	}
	versionName := opts.VersionName
	if versionName == "" {
		versionName = DefaultVersionName
	}

	b := &Build{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ProjectID:   projectID,
		Kind:        kind,
		VersionCode: versionCode,
		VersionName: versionName,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
	}

	if err := s.builds.Create(ctx, tenantID, b); err != nil {
		return nil, fmt.Errorf("creating build record: %w", err)
	}

	s.logBuildActivity(ctx, b, activity.TypeBuildRequested,
		fmt.Sprintf("%s build requested for %s", kind, snap.AppName))

	ticket := &Ticket{BuildID: b.ID, done: make(chan struct{})}
	s.wg.Add(1)
	go s.run(b, snap, ticket)

	return ticket, nil
}

func (s *Service) run(b *Build, snap *project.Snapshot, ticket *Ticket) {
	defer s.wg.Done()
	defer close(ticket.done)

	if s.sem != nil {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			s.abandon(b, fmt.Sprintf("Error: build not started: %v", err))
			return
		}
		defer s.sem.Release(1)
	}

	if err := s.orch.Run(s.ctx, b, snap); err != nil {
		if s.logger != nil {
			s.logger.Error("build failed", "build_id", b.ID, "project_id", b.ProjectID, "error", err)
		}
		s.logBuildActivity(context.Background(), b, activity.TypeBuildFailed, err.Error())
		return
	}
	if s.logger != nil {
		s.logger.Info("build succeeded", "build_id", b.ID, "project_id", b.ProjectID)
	}
	s.logBuildActivity(context.Background(), b, activity.TypeBuildSucceeded,
		fmt.Sprintf("%s build completed", b.Kind))
}

// abandon records a failure for an attempt that never reached the
// orchestrator, such as a shutdown during admission.
func (s *Service) abandon(b *Build, msg string) {
	ctx := context.Background()
	if err := s.builds.AppendLog(ctx, b.TenantID, b.ID, msg+"\n"); err != nil && s.logger != nil {
		s.logger.Error("failed to append build log", "build_id", b.ID, "error", err)
	}
	if err := s.builds.Transition(ctx, b.TenantID, b.ID, StatusFailed, nil); err != nil && s.logger != nil {
		s.logger.Error("failed to mark build failed", "build_id", b.ID, "error", err)
	}
}

func (s *Service) logBuildActivity(ctx context.Context, b *Build, t activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	err := s.activities.LogActivity(ctx, b.TenantID, &activity.ActivityEntry{
		ProjectID:    b.ProjectID,
		BuildID:      &b.ID,
		ActivityType: t,
		Summary:      summary,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity log write failed", "build_id", b.ID, "error", err)
	}
}

// Get returns one build, scoped to its project.
func (s *Service) Get(ctx context.Context, tenantID, projectID, buildID string) (*Build, error) {
	b, err := s.builds.Get(ctx, tenantID, buildID)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrBuildNotFound
		}
		return nil, fmt.Errorf("getting build: %w", err)
	}
	if b.ProjectID != projectID {
		return nil, ErrBuildNotFound
	}
	return b, nil
}

// List returns a project's builds, newest first.
func (s *Service) List(ctx context.Context, tenantID, projectID string) ([]Build, error) {
	if _, err := s.snapshots.FetchSnapshot(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	return s.builds.ListByProject(ctx, tenantID, projectID)
}

// Artifact returns the permanent artifact path for a successful build.
// Any non-terminal-success state yields ErrNotReady.
func (s *Service) Artifact(ctx context.Context, tenantID, projectID, buildID string) (string, error) {
	b, err := s.Get(ctx, tenantID, projectID, buildID)
	if err != nil {
		return "", err
	}
	if b.Status != StatusSuccess || b.ArtifactPath == nil || *b.ArtifactPath == "" {
		return "", ErrNotReady
	}
	return *b.ArtifactPath, nil
}
