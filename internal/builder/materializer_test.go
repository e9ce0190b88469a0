package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func discardLog(string, ...any) {}

func urlSnapshot() *project.Snapshot {
	return &project.Snapshot{
		ID:          "p1",
		AppName:     "Wrapped Shop",
		PackageName: "com.example.shop",
		SourceMode:  project.ModeURLWrapped,
		WebsiteURL:  "https://shop.example.com",
	}
}

func templateSnapshot() *project.Snapshot {
	return &project.Snapshot{
		ID:          "p2",
		AppName:     "Board App",
		PackageName: "com.example.board",
		SourceMode:  project.ModeTemplateGenerated,
		ThemeColor:  "#112233",
		BottomNavEnabled: true,
		Pages: []project.Page{
			{Kind: project.PageSplash, Title: "Welcome", Body: "Hello"},
			{Kind: project.PageBoard, Title: "Board", Body: "Posts"},
			{Kind: project.PageMyPage, Title: "My Page", Body: "Profile"},
		},
	}
}

func TestMaterialize_URLWrapped(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer()
	require.NoError(t, m.Materialize(urlSnapshot(), dir, discardLog))

	html, err := os.ReadFile(filepath.Join(dir, "www", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "https://shop.example.com")
	require.Contains(t, string(html), project.DefaultThemeColor)

	cfg, err := os.ReadFile(filepath.Join(dir, "capacitor.config.json"))
	require.NoError(t, err)
	require.Contains(t, string(cfg), `"appId": "com.example.shop"`)
	require.Contains(t, string(cfg), `"webDir": "www"`)

	_, err = os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)

	// No template assets for a wrapped app.
	_, err = os.Stat(filepath.Join(dir, "www", "app.js"))
	require.True(t, os.IsNotExist(err))
}

func TestMaterialize_TemplatePages(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer()
	require.NoError(t, m.Materialize(templateSnapshot(), dir, discardLog))

	html, err := os.ReadFile(filepath.Join(dir, "www", "index.html"))
	require.NoError(t, err)
	out := string(html)
	require.Contains(t, out, `id="page-splash"`)
	require.Contains(t, out, `id="page-board"`)
	require.Contains(t, out, `id="page-mypage"`)
	require.Contains(t, out, `class="bottom-nav"`)

	css, err := os.ReadFile(filepath.Join(dir, "www", "style.css"))
	require.NoError(t, err)
	require.Contains(t, string(css), "#112233")

	_, err = os.Stat(filepath.Join(dir, "www", "app.js"))
	require.NoError(t, err)
}

func TestMaterialize_Deterministic(t *testing.T) {
	snap := templateSnapshot()
	m := NewMaterializer()

	dirA := t.TempDir()
	dirB := t.TempDir()
	require.NoError(t, m.Materialize(snap, dirA, discardLog))
	require.NoError(t, m.Materialize(snap, dirB, discardLog))

	for _, rel := range []string{
		filepath.Join("www", "index.html"),
		filepath.Join("www", "style.css"),
		filepath.Join("www", "app.js"),
		"package.json",
		"capacitor.config.json",
	} {
		a, err := os.ReadFile(filepath.Join(dirA, rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, rel))
		require.NoError(t, err)
		require.Equal(t, string(a), string(b), rel)
	}
}

func TestMaterialize_BlankURLFailsBeforeAnyStage(t *testing.T) {
	snap := urlSnapshot()
	snap.WebsiteURL = "   "

	m := NewMaterializer()
	err := m.Materialize(snap, t.TempDir(), discardLog)

	var matErr *build.MaterializationError
	require.ErrorAs(t, err, &matErr)
	require.ErrorIs(t, err, project.ErrMissingWebsiteURL)
}

func TestMaterialize_MissingIconIsWarning(t *testing.T) {
	snap := urlSnapshot()
	snap.IconPath = filepath.Join(t.TempDir(), "missing-icon.png")

	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	m := NewMaterializer()
	require.NoError(t, m.Materialize(snap, t.TempDir(), logf))
	require.True(t, strings.Contains(strings.Join(lines, "\n"), "Warning: icon not found"))
}

func TestMaterialize_CopiesIcon(t *testing.T) {
	iconSrc := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(iconSrc, []byte("png-bytes"), 0o644))

	snap := urlSnapshot()
	snap.IconPath = iconSrc

	dir := t.TempDir()
	m := NewMaterializer()
	require.NoError(t, m.Materialize(snap, dir, discardLog))

	data, err := os.ReadFile(filepath.Join(dir, "www", "icon.png"))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

func TestWorkspacePathUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		path := WorkspacePath("/var/builds", fmt.Sprintf("id-%d", i))
		require.False(t, seen[path], path)
		seen[path] = true
	}
	require.Equal(t, "/var/builds/build-abc", WorkspacePath("/var/builds", "abc"))
}
