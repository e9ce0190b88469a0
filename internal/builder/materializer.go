package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
)

// logFunc appends one line to a build's log.
type logFunc func(format string, args ...any)

// Materializer writes the buildable source tree for a snapshot into a
// workspace. It only reads the snapshot and writes files: no network,
// no subprocesses, no clock. Materializing the same snapshot twice
// yields byte-identical trees.
type Materializer struct{}

func NewMaterializer() *Materializer {
	return &Materializer{}
}

// Materialize lays out the web bundle and toolchain manifests under dir.
// A missing optional asset (icon, splash) is logged and skipped; every
// other failure is a MaterializationError.
func (m *Materializer) Materialize(snap *project.Snapshot, dir string, logf logFunc) error {
	if err := snap.Validate(); err != nil {
		return &build.MaterializationError{Reason: "invalid project snapshot", Err: err}
	}

	wwwDir := filepath.Join(dir, "www")
	if err := os.MkdirAll(wwwDir, 0o755); err != nil {
		return &build.MaterializationError{Reason: "creating web directory", Err: err}
	}

	files := map[string]string{
		filepath.Join(wwwDir, "index.html"): entryHTML(snap),
	}
	if snap.SourceMode == project.ModeTemplateGenerated {
		files[filepath.Join(wwwDir, "style.css")] = styleCSS(snap)
		files[filepath.Join(wwwDir, "app.js")] = appJS(snap)
	}
	files[filepath.Join(dir, "package.json")] = packageJSON(snap)

	capCfg, err := capacitorConfigJSON(snap)
	if err != nil {
		return &build.MaterializationError{Reason: "rendering app config", Err: err}
	}
	files[filepath.Join(dir, "capacitor.config.json")] = capCfg

	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return &build.MaterializationError{Reason: "writing " + filepath.Base(path), Err: err}
		}
	}

	if snap.IconPath != "" {
		m.copyAsset(snap.IconPath, filepath.Join(wwwDir, "icon.png"), "icon", logf)
	}
	if snap.SplashEnabled && snap.SplashPath != "" {
		m.copyAsset(snap.SplashPath, filepath.Join(wwwDir, "splash.png"), "splash image", logf)
	}

	logf("Materialized %s sources for %s", snap.SourceMode, snap.AppName)
	return nil
}

// copyAsset copies an optional branding asset into the workspace. The
// asset is allowed to be missing; the build proceeds without it.
func (m *Materializer) copyAsset(src, dest, label string, logf logFunc) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logf("Warning: %s not found at %s, skipping", label, src)
		} else {
			logf("Warning: cannot read %s at %s: %v, skipping", label, src, err)
		}
		return
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		logf("Warning: cannot write %s: %v, skipping", label, err)
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		logf("Warning: copying %s failed: %v", label, err)
	}
}

func packageJSON(snap *project.Snapshot) string {
	type pkg struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Private      bool              `json:"private"`
		Dependencies map[string]string `json:"dependencies"`
	}
	p := pkg{
		Name:    npmName(snap.AppName),
		Version: "1.0.0",
		Private: true,
		Dependencies: map[string]string{
			"@capacitor/android": "^6.0.0",
			"@capacitor/cli":     "^6.0.0",
			"@capacitor/core":    "^6.0.0",
		},
	}
	// Marshal is deterministic here: struct field order plus sorted map keys.
	data, _ := json.MarshalIndent(p, "", "  ")
	return string(data) + "\n"
}

func capacitorConfigJSON(snap *project.Snapshot) (string, error) {
	type splashCfg struct {
		LaunchShowDuration int    `json:"launchShowDuration"`
		BackgroundColor    string `json:"backgroundColor"`
		LaunchAutoHide     bool   `json:"launchAutoHide"`
	}
	type pluginsCfg struct {
		SplashScreen *splashCfg `json:"SplashScreen,omitempty"`
	}
	type serverCfg struct {
		Cleartext bool `json:"cleartext"`
	}
	type capCfg struct {
		AppID   string     `json:"appId"`
		AppName string     `json:"appName"`
		WebDir  string     `json:"webDir"`
		Server  serverCfg  `json:"server"`
		Plugins pluginsCfg `json:"plugins"`
	}
	cfg := capCfg{
		AppID:   snap.PackageName,
		AppName: snap.AppName,
		WebDir:  "www",
		Server:  serverCfg{Cleartext: true},
	}
	if snap.SplashEnabled {
		cfg.Plugins.SplashScreen = &splashCfg{
			LaunchShowDuration: 2000,
			BackgroundColor:    snap.Theme(),
			LaunchAutoHide:     true,
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling capacitor config: %w", err)
	}
	return string(data) + "\n", nil
}

// npmName lowercases the app name into something npm accepts.
func npmName(appName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(appName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
