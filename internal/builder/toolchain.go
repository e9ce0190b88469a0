package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
)

// Runner executes one toolchain subprocess in a working directory and
// returns its combined output. The real implementation shells out;
// tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

type execRunner struct{}

// NewExecRunner returns the subprocess-backed Runner.
func NewExecRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Stage names, in execution order.
const (
	StageEnvValidate = "environment-validation"
	StageDeps        = "dependency-resolution"
	StagePlatform    = "platform-bootstrap"
	StageSync        = "asset-sync"
	StageManifest    = "manifest-patch"
	StagePackage     = "package"
)

const (
	// An APK below this size is a packaging failure, not an app.
	minArtifactSize = 100 * 1024

	maxStageLogBytes    = 64 * 1024
	defaultStageTimeout = 10 * time.Minute
)

// Toolchain drives the staged subprocess pipeline that turns a
// materialized workspace into an artifact. Stages run strictly in
// order; the first failure aborts the pipeline.
type Toolchain struct {
	runner       Runner
	stageTimeout time.Duration
	getenv       func(string) string
}

func NewToolchain(runner Runner, stageTimeout time.Duration) *Toolchain {
	if stageTimeout <= 0 {
		stageTimeout = defaultStageTimeout
	}
	return &Toolchain{runner: runner, stageTimeout: stageTimeout, getenv: os.Getenv}
}

// Build runs all stages against the workspace and returns the path of
// the verified artifact inside it.
func (t *Toolchain) Build(ctx context.Context, ws string, kind build.Kind, signing *project.SigningKey, logf logFunc) (string, error) {
	if err := t.validateEnvironment(ctx, ws, logf); err != nil {
		return "", err
	}
	if err := t.runStage(ctx, ws, StageDeps, "npm", []string{"install", "--legacy-peer-deps"}, logf); err != nil {
		return "", err
	}
	if err := t.runStage(ctx, ws, StagePlatform, "npx", []string{"cap", "add", "android"}, logf); err != nil {
		return "", err
	}
	if err := t.runStage(ctx, ws, StageSync, "npx", []string{"cap", "sync", "android"}, logf); err != nil {
		return "", err
	}

	manifestPath := filepath.Join(ws, "android", "app", "src", "main", "AndroidManifest.xml")
	if err := PatchManifest(manifestPath); err != nil {
		return "", &build.ToolchainStageError{Stage: StageManifest, ExitCode: -1, Err: err}
	}
	logf("--- %s: permissions and cleartext flag ensured", StageManifest)

	task, artifact := packagePlan(ws, kind, signing)
	args := []string{task, "--no-daemon"}
	args = append(args, signingArgs(signing)...)
	if err := t.runStage(ctx, filepath.Join(ws, "android"), StagePackage, "./gradlew", args, logf); err != nil {
		return "", err
	}

	if err := verifyArtifact(artifact); err != nil {
		return "", err
	}
	logf("Artifact verified: %s", filepath.Base(artifact))
	return artifact, nil
}

// validateEnvironment probes every required tool before any stage runs
// and reports all missing ones together, not just the first.
func (t *Toolchain) validateEnvironment(ctx context.Context, ws string, logf logFunc) error {
	tools := []struct {
		label string
		name  string
		args  []string
	}{
		{"node", "node", []string{"--version"}},
		{"npm", "npm", []string{"--version"}},
		{"java", "java", []string{"-version"}},
	}

	var missing []string
	for _, tool := range tools {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sctx, cancel := context.WithTimeout(ctx, t.stageTimeout)
		out, err := t.runner.Run(sctx, ws, tool.name, tool.args...)
		cancel()
		if err != nil {
			missing = append(missing, tool.label)
			continue
		}
		logf("%s: %s", tool.label, firstLine(out))
	}

	sdkRoot := t.getenv("ANDROID_HOME")
	if sdkRoot == "" {
		sdkRoot = t.getenv("ANDROID_SDK_ROOT")
	}
	if sdkRoot == "" {
		missing = append(missing, "android-sdk (ANDROID_HOME)")
	} else if info, err := os.Stat(sdkRoot); err != nil || !info.IsDir() {
		missing = append(missing, fmt.Sprintf("android-sdk (%s is not a directory)", sdkRoot))
	} else {
		logf("android-sdk: %s", sdkRoot)
	}

	if len(missing) > 0 {
		return &build.EnvironmentValidationError{Missing: missing}
	}
	return nil
}

func (t *Toolchain) runStage(ctx context.Context, dir, stage, name string, args []string, logf logFunc) error {
	logf("--- %s: %s %s", stage, name, strings.Join(args, " "))
	sctx, cancel := context.WithTimeout(ctx, t.stageTimeout)
	defer cancel()

	out, err := t.runner.Run(sctx, dir, name, args...)
	if trimmed := strings.TrimSpace(out); trimmed != "" {
		logf("%s", truncateOutput(trimmed))
	}
	if err != nil {
		if errors.Is(sctx.Err(), context.DeadlineExceeded) {
			return &build.ToolchainTimeoutError{Stage: stage, Timeout: t.stageTimeout}
		}
		return &build.ToolchainStageError{
			Stage:    stage,
			ExitCode: exitCode(err),
			Output:   truncateOutput(out),
			Err:      err,
		}
	}
	return nil
}

// packagePlan picks the gradle task and the output path it produces.
// Unsigned APKs build with the debug identity; a stored credential
// switches to a release build, and bundles are always release.
func packagePlan(ws string, kind build.Kind, signing *project.SigningKey) (task, artifact string) {
	outputs := filepath.Join(ws, "android", "app", "build", "outputs")
	if kind == build.KindAAB {
		return "bundleRelease", filepath.Join(outputs, "bundle", "release", "app-release.aab")
	}
	if signing != nil {
		return "assembleRelease", filepath.Join(outputs, "apk", "release", "app-release.apk")
	}
	return "assembleDebug", filepath.Join(outputs, "apk", "debug", "app-debug.apk")
}

// signingArgs injects the credential through the Android Gradle
// plugin's standard injected-signing properties.
func signingArgs(signing *project.SigningKey) []string {
	if signing == nil {
		return nil
	}
	return []string{
		"-Pandroid.injected.signing.store.file=" + signing.KeystorePath,
		"-Pandroid.injected.signing.store.password=" + signing.StorePassword,
		"-Pandroid.injected.signing.key.alias=" + signing.KeyAlias,
		"-Pandroid.injected.signing.key.password=" + signing.KeyPassword,
	}
}

// verifyArtifact checks the package stage actually produced a plausible
// file. A zero exit status with no artifact still fails the build.
func verifyArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &build.ArtifactNotProducedError{Path: path}
	}
	if info.Size() < minArtifactSize {
		return &build.ArtifactNotProducedError{Path: path, Size: info.Size()}
	}
	return nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// truncateOutput keeps the tail of stage output; build tools put the
// interesting error last.
func truncateOutput(out string) string {
	if len(out) <= maxStageLogBytes {
		return out
	}
	return "... (output truncated)\n" + out[len(out)-maxStageLogBytes:]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
