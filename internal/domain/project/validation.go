package project

import (
	"regexp"
	"strings"
)

// packageNamePattern matches reverse-domain package identifiers such as
// com.example.app. At least two dot-separated segments are required.
var packageNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]+(\.[a-z][a-z0-9_]+)+$`)

// ValidPackageName reports whether name is a usable application identifier.
func ValidPackageName(name string) bool {
	return packageNamePattern.MatchString(name)
}

// Validate checks that the snapshot is buildable. A template-generated
// snapshot with zero pages is valid; it produces an empty-content app.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.AppName) == "" {
		return ErrInvalidInput
	}
	if !ValidPackageName(s.PackageName) {
		return ErrInvalidPackageName
	}
	switch s.SourceMode {
	case ModeURLWrapped:
		if strings.TrimSpace(s.WebsiteURL) == "" {
			return ErrMissingWebsiteURL
		}
	case ModeTemplateGenerated:
		// No page requirements.
	default:
		return ErrInvalidSourceMode
	}
	return nil
}
