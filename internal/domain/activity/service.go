package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Repository manages activity log persistence.
type Repository interface {
	Log(ctx context.Context, tenantID string, entry *ActivityEntry) error
	List(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error)
}

// Service handles activity log operations. Activity writes are telemetry;
// callers on the build path log failures from this service and move on,
// they never fail a build over it.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, tenantID string, entry *ActivityEntry) error {
	if entry == nil {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, tenantID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, tenantID, opts)
}
