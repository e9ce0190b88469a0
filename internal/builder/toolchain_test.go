package builder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/stretchr/testify/require"
)

// fakeRunner drives the pipeline without real subprocesses.
type fakeRunner struct {
	run func(ctx context.Context, dir, name string, args ...string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	return f.run(ctx, dir, name, args...)
}

// happyRunner simulates a working toolchain: the platform stage lays
// down a manifest and the package stage produces an artifact of size
// artifactSize.
func happyRunner(t *testing.T, ws string, artifactSize int) *fakeRunner {
	t.Helper()
	return &fakeRunner{run: func(_ context.Context, dir, name string, args ...string) (string, error) {
		cmd := name + " " + strings.Join(args, " ")
		switch {
		case strings.HasPrefix(cmd, "npx cap add android"):
			manifestDir := filepath.Join(ws, "android", "app", "src", "main")
			require.NoError(t, os.MkdirAll(manifestDir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(manifestDir, "AndroidManifest.xml"), []byte(bareManifest), 0o644))
			return "android platform added", nil
		case name == "./gradlew":
			var out string
			switch args[0] {
			case "assembleDebug":
				out = filepath.Join(dir, "app", "build", "outputs", "apk", "debug", "app-debug.apk")
			case "assembleRelease":
				out = filepath.Join(dir, "app", "build", "outputs", "apk", "release", "app-release.apk")
			case "bundleRelease":
				out = filepath.Join(dir, "app", "build", "outputs", "bundle", "release", "app-release.aab")
			default:
				t.Fatalf("unexpected gradle task %s", args[0])
			}
			require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
			require.NoError(t, os.WriteFile(out, bytes.Repeat([]byte{0xAB}, artifactSize), 0o644))
			return "BUILD SUCCESSFUL", nil
		default:
			return "ok", nil
		}
	}}
}

func testToolchain(runner Runner, sdkDir string) *Toolchain {
	tc := NewToolchain(runner, time.Minute)
	tc.getenv = func(key string) string {
		if key == "ANDROID_HOME" {
			return sdkDir
		}
		return ""
	}
	return tc
}

func TestToolchain_BuildAPK(t *testing.T) {
	ws := t.TempDir()
	tc := testToolchain(happyRunner(t, ws, minArtifactSize+1), t.TempDir())

	artifact, err := tc.Build(context.Background(), ws, build.KindAPK, nil, discardLog)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(artifact, "app-debug.apk"), artifact)

	info, err := os.Stat(artifact)
	require.NoError(t, err)
	require.GreaterOrEqual(t, info.Size(), int64(minArtifactSize))

	// The manifest was patched in place.
	data, err := os.ReadFile(filepath.Join(ws, "android", "app", "src", "main", "AndroidManifest.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "android.permission.INTERNET")
}

func TestToolchain_BuildAAB(t *testing.T) {
	ws := t.TempDir()
	tc := testToolchain(happyRunner(t, ws, minArtifactSize+1), t.TempDir())

	artifact, err := tc.Build(context.Background(), ws, build.KindAAB, nil, discardLog)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(artifact, "app-release.aab"), artifact)
}

func TestToolchain_SignedAPKUsesReleaseTask(t *testing.T) {
	ws := t.TempDir()
	var gradleArgs []string
	inner := happyRunner(t, ws, minArtifactSize+1)
	runner := &fakeRunner{run: func(ctx context.Context, dir, name string, args ...string) (string, error) {
		if name == "./gradlew" {
			gradleArgs = args
		}
		return inner.run(ctx, dir, name, args...)
	}}
	tc := testToolchain(runner, t.TempDir())

	cred := &project.SigningKey{
		KeystorePath:  "/keys/release.jks",
		StorePassword: "store-pass",
		KeyAlias:      "release",
		KeyPassword:   "key-pass",
	}
	artifact, err := tc.Build(context.Background(), ws, build.KindAPK, cred, discardLog)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(artifact, "app-release.apk"), artifact)
	require.Equal(t, "assembleRelease", gradleArgs[0])
	require.Contains(t, gradleArgs, "-Pandroid.injected.signing.store.file=/keys/release.jks")
	require.Contains(t, gradleArgs, "-Pandroid.injected.signing.key.alias=release")
}

func TestToolchain_EnvValidationAggregatesAllMissing(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _, name string, _ ...string) (string, error) {
		if name == "npm" {
			return "10.2.0", nil
		}
		return "", errors.New("not found")
	}}
	tc := testToolchain(runner, "")

	_, err := tc.Build(context.Background(), t.TempDir(), build.KindAPK, nil, discardLog)

	var envErr *build.EnvironmentValidationError
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, []string{"node", "java", "android-sdk (ANDROID_HOME)"}, envErr.Missing)
}

func TestToolchain_StageFailureNamesStage(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _, name string, args ...string) (string, error) {
		if name == "npm" && len(args) > 0 && args[0] == "install" {
			return "npm ERR! peer dep conflict", errors.New("exit status 1")
		}
		return "ok", nil
	}}
	tc := testToolchain(runner, t.TempDir())

	_, err := tc.Build(context.Background(), t.TempDir(), build.KindAPK, nil, discardLog)

	var stageErr *build.ToolchainStageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageDeps, stageErr.Stage)
	require.Contains(t, stageErr.Output, "peer dep conflict")
}

func TestToolchain_UndersizedArtifactFails(t *testing.T) {
	ws := t.TempDir()
	tc := testToolchain(happyRunner(t, ws, 10), t.TempDir())

	_, err := tc.Build(context.Background(), ws, build.KindAPK, nil, discardLog)

	var artErr *build.ArtifactNotProducedError
	require.ErrorAs(t, err, &artErr)
	require.Equal(t, int64(10), artErr.Size)
}

func TestToolchain_MissingArtifactFails(t *testing.T) {
	ws := t.TempDir()
	inner := happyRunner(t, ws, minArtifactSize+1)
	runner := &fakeRunner{run: func(ctx context.Context, dir, name string, args ...string) (string, error) {
		if name == "./gradlew" {
			// Exit zero without producing anything.
			return "BUILD SUCCESSFUL", nil
		}
		return inner.run(ctx, dir, name, args...)
	}}
	tc := testToolchain(runner, t.TempDir())

	_, err := tc.Build(context.Background(), ws, build.KindAPK, nil, discardLog)

	var artErr *build.ArtifactNotProducedError
	require.ErrorAs(t, err, &artErr)
}

func TestTruncateOutput(t *testing.T) {
	short := "BUILD SUCCESSFUL"
	require.Equal(t, short, truncateOutput(short))

	long := strings.Repeat("x", maxStageLogBytes+100) + "TAIL"
	got := truncateOutput(long)
	require.True(t, strings.HasPrefix(got, "... (output truncated)"))
	require.True(t, strings.HasSuffix(got, "TAIL"))
}
