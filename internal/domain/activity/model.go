package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeBuildRequested ActivityType = "build_requested"
	TypeBuildSucceeded ActivityType = "build_succeeded"
	TypeBuildFailed    ActivityType = "build_failed"
	TypeArtifactServed ActivityType = "artifact_served"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	ProjectID    string       `json:"project_id"`
	BuildID      *string      `json:"build_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}

// ListActivityOptions provides filtering options for listing activity
type ListActivityOptions struct {
	ProjectID    string
	BuildID      *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
