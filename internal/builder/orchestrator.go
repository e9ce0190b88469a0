// Package builder turns a project snapshot into a signed or debug
// Android artifact inside an isolated per-build workspace.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/repository"
	"github.com/rpggio/appforge/internal/signing"
)

// Orchestrator runs one build attempt end to end: workspace, sources,
// toolchain stages, artifact relocation, and the terminal status write.
// It satisfies the build service's Orchestrator interface.
type Orchestrator struct {
	builds    repository.BuildRepository
	mat       *Materializer
	toolchain *Toolchain
	signing   *signing.Cache
	artifacts ArtifactStore
	root      string
	logger    *slog.Logger
}

// ArtifactStore relocates a finished artifact to its permanent path.
type ArtifactStore interface {
	Save(ctx context.Context, projectID, appName, buildID string, kind build.Kind, srcPath string) (string, error)
}

func NewOrchestrator(
	builds repository.BuildRepository,
	mat *Materializer,
	toolchain *Toolchain,
	signingCache *signing.Cache,
	artifacts ArtifactStore,
	workspaceRoot string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		builds:    builds,
		mat:       mat,
		toolchain: toolchain,
		signing:   signingCache,
		artifacts: artifacts,
		root:      workspaceRoot,
		logger:    logger,
	}
}

// Run executes the build attempt. The record always ends terminal:
// success with an artifact path, or failed with the error appended to
// the log. Record writes survive cancellation of ctx so an interrupted
// attempt is still marked failed.
func (o *Orchestrator) Run(ctx context.Context, b *build.Build, snap *project.Snapshot) error {
	logCtx := context.WithoutCancel(ctx)
	logf := func(format string, args ...any) {
		line := fmt.Sprintf("[%s] ", time.Now().UTC().Format(time.RFC3339)) + fmt.Sprintf(format, args...) + "\n"
		if err := o.builds.AppendLog(logCtx, b.TenantID, b.ID, line); err != nil && o.logger != nil {
			o.logger.Error("failed to append build log", "build_id", b.ID, "error", err)
		}
	}

	if err := o.builds.Transition(logCtx, b.TenantID, b.ID, build.StatusBuilding, nil); err != nil {
		return fmt.Errorf("marking build started: %w", err)
	}
	logf("Build started: %s %s v%s (%d)", snap.AppName, b.Kind, b.VersionName, b.VersionCode)

	ws, err := CreateWorkspace(o.root, b.ID)
	if err != nil {
		return o.fail(logCtx, b, logf, &build.MaterializationError{Reason: "creating workspace", Err: err})
	}

	if err := o.mat.Materialize(snap, ws, logf); err != nil {
		return o.fail(logCtx, b, logf, err)
	}

	// The credential is resolved at build time rather than taken from
	// the snapshot, so a rotation between request and execution wins.
	cred, err := o.signing.Get(ctx, b.TenantID, b.ProjectID)
	if err != nil {
		logf("Warning: signing credential unavailable, building unsigned: %v", err)
		cred = nil
	}

	artifact, err := o.toolchain.Build(ctx, ws, b.Kind, cred, logf)
	if err != nil {
		return o.fail(logCtx, b, logf, err)
	}

	permanent, err := o.artifacts.Save(logCtx, b.ProjectID, snap.AppName, b.ID, b.Kind, artifact)
	if err != nil {
		return o.fail(logCtx, b, logf, err)
	}
	logf("Build succeeded: %s", permanent)

	if err := o.builds.Transition(logCtx, b.TenantID, b.ID, build.StatusSuccess, &permanent); err != nil {
		return fmt.Errorf("marking build succeeded: %w", err)
	}

	// The workspace only matters for diagnosing failures.
	if err := RemoveWorkspace(o.root, b.ID); err != nil && o.logger != nil {
		o.logger.Warn("failed to remove workspace", "build_id", b.ID, "error", err)
	}
	return nil
}

// fail records the terminal failure. The workspace is kept for
// inspection.
func (o *Orchestrator) fail(ctx context.Context, b *build.Build, logf logFunc, cause error) error {
	logf("Error: %v", cause)
	if err := o.builds.Transition(ctx, b.TenantID, b.ID, build.StatusFailed, nil); err != nil && o.logger != nil {
		o.logger.Error("failed to mark build failed", "build_id", b.ID, "error", err)
	}
	return cause
}
