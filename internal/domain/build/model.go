package build

import "time"

// Status represents the lifecycle state of a build attempt.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusBuilding Status = "building"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransition reports whether the status machine allows from -> to.
// Terminal states accept no transitions.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusBuilding || to == StatusFailed
	case StatusBuilding:
		return to == StatusSuccess || to == StatusFailed
	default:
		return false
	}
}

// Kind is the requested artifact kind.
type Kind string

const (
	// KindAPK is a directly installable package.
	KindAPK Kind = "apk"
	// KindAAB is a store-upload bundle.
	KindAAB Kind = "aab"
)

// ParseKind validates a requested artifact kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAPK:
		return KindAPK, nil
	case KindAAB:
		return KindAAB, nil
	default:
		return "", ErrInvalidKind
	}
}

// Build is one build attempt. Its lifecycle is owned by the orchestrator;
// once the status is terminal the record is immutable.
type Build struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	ProjectID    string     `json:"project_id"`
	Kind         Kind       `json:"build_type"`
	VersionCode  int        `json:"version_code"`
	VersionName  string     `json:"version_name"`
	Status       Status     `json:"status"`
	Log          string     `json:"log"`
	ArtifactPath *string    `json:"artifact_path,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// DefaultVersionName is used when a build request omits the version name.
const DefaultVersionName = "1.0.0"
