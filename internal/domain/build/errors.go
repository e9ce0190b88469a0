package build

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidKind indicates an unknown artifact kind in a build request.
	ErrInvalidKind = errors.New("build type must be apk or aab")
	// ErrBuildNotFound indicates the build doesn't exist.
	ErrBuildNotFound = errors.New("build not found")
	// ErrNotReady indicates the build has no downloadable artifact yet.
	ErrNotReady = errors.New("build artifact not ready")
	// ErrInvalidInput indicates invalid input for build operations.
	ErrInvalidInput = errors.New("invalid build input")
)

// MaterializationError indicates the asset materializer could not produce
// the workspace contents. Always fatal to the attempt.
type MaterializationError struct {
	Reason string
	Err    error
}

func (e *MaterializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("MaterializationError: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("MaterializationError: %s", e.Reason)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// EnvironmentValidationError aggregates every missing prerequisite found
// during environment validation, not just the first.
type EnvironmentValidationError struct {
	Missing []string
}

func (e *EnvironmentValidationError) Error() string {
	return "EnvironmentValidationError: missing prerequisites: " + strings.Join(e.Missing, "; ")
}

// ToolchainStageError indicates a toolchain stage subprocess failed.
// Captured output is preserved for the build log.
type ToolchainStageError struct {
	Stage    string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolchainStageError) Error() string {
	return fmt.Sprintf("ToolchainStageError: stage %s failed (exit %d)", e.Stage, e.ExitCode)
}

func (e *ToolchainStageError) Unwrap() error { return e.Err }

// ToolchainTimeoutError indicates a stage exceeded its wall-clock bound.
type ToolchainTimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *ToolchainTimeoutError) Error() string {
	return fmt.Sprintf("ToolchainTimeoutError: stage %s exceeded %s", e.Stage, e.Timeout)
}

// ArtifactNotProducedError indicates the package stage reported success but
// the expected artifact is absent or implausibly small.
type ArtifactNotProducedError struct {
	Path string
	Size int64
}

func (e *ArtifactNotProducedError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("ArtifactNotProducedError: artifact at %s is too small (%d bytes)", e.Path, e.Size)
	}
	return fmt.Sprintf("ArtifactNotProducedError: no artifact at %s", e.Path)
}
