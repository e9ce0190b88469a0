package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/appforge/internal/repository/repoerr"
)

// Repository is the persistence surface the project service needs.
type Repository interface {
	Create(ctx context.Context, tenantID string, snap *Snapshot) error
	GetSnapshot(ctx context.Context, tenantID, id string) (*Snapshot, error)
	SetSigning(ctx context.Context, tenantID, id string, key *SigningKey) error
}

// SigningEvictor drops cached signing credentials after a rotation.
type SigningEvictor interface {
	Evict(tenantID, projectID string)
}

// Service provides project build configuration operations.
type Service struct {
	repo    Repository
	evictor SigningEvictor
	logger  *slog.Logger
}

// NewService creates a new project service. evictor may be nil.
func NewService(repo Repository, evictor SigningEvictor, logger *slog.Logger) *Service {
	return &Service{repo: repo, evictor: evictor, logger: logger}
}

// CreateProject validates and stores a new project definition.
func (s *Service) CreateProject(ctx context.Context, tenantID string, snap *Snapshot) (*Snapshot, error) {
	if snap == nil {
		return nil, ErrInvalidInput
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	snap.TenantID = tenantID
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tenantID, snap); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("project created", "project_id", snap.ID, "app_name", snap.AppName, "source_mode", snap.SourceMode)
	}
	return snap, nil
}

// FetchSnapshot loads the immutable build-relevant view of a project.
func (s *Service) FetchSnapshot(ctx context.Context, tenantID, id string) (*Snapshot, error) {
	snap, err := s.repo.GetSnapshot(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("fetching project snapshot: %w", err)
	}
	return snap, nil
}

// SetSigning stores or clears a project's release credential and drops
// any cached copy so the next build sees the new one.
func (s *Service) SetSigning(ctx context.Context, tenantID, id string, key *SigningKey) error {
	if key != nil && (key.KeystorePath == "" || key.KeyAlias == "") {
		return ErrInvalidInput
	}
	if err := s.repo.SetSigning(ctx, tenantID, id, key); err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("setting signing credential: %w", err)
	}
	if s.evictor != nil {
		s.evictor.Evict(tenantID, id)
	}
	return nil
}
