package project

import "time"

// SourceMode selects how the app's content is produced.
type SourceMode string

const (
	// ModeURLWrapped wraps a live website URL in a native webview shell.
	ModeURLWrapped SourceMode = "url-wrapped"
	// ModeTemplateGenerated renders a set of template pages as app content.
	ModeTemplateGenerated SourceMode = "template-generated"
)

// PageKind identifies a template page layout.
type PageKind string

const (
	PageSplash   PageKind = "splash"
	PageLogin    PageKind = "login"
	PageRegister PageKind = "register"
	PageBoard    PageKind = "board"
	PageMyPage   PageKind = "mypage"
)

// Page is one template page definition.
type Page struct {
	Kind  PageKind `json:"kind"`
	Title string   `json:"title,omitempty"`
	Body  string   `json:"body,omitempty"`
}

// SigningKey references an uploaded release keystore. Absent means the
// build is signed with the default debug identity.
type SigningKey struct {
	KeystorePath  string `json:"keystore_path"`
	StorePassword string `json:"-"`
	KeyAlias      string `json:"key_alias"`
	KeyPassword   string `json:"-"`
}

// Snapshot is the immutable build-relevant view of a project, captured at
// the moment a build is requested.
type Snapshot struct {
	ID               string      `json:"id"`
	TenantID         string      `json:"tenant_id"`
	AppName          string      `json:"app_name"`
	Description      string      `json:"description,omitempty"`
	PackageName      string      `json:"package_name"`
	SourceMode       SourceMode  `json:"source_mode"`
	WebsiteURL       string      `json:"website_url,omitempty"`
	Pages            []Page      `json:"pages,omitempty"`
	ThemeColor       string      `json:"theme_color,omitempty"`
	BottomNavEnabled bool        `json:"bottom_nav_enabled"`
	IconPath         string      `json:"icon_path,omitempty"`
	SplashPath       string      `json:"splash_path,omitempty"`
	SplashEnabled    bool        `json:"splash_enabled"`
	Signing          *SigningKey `json:"signing,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// DefaultThemeColor is used when a project has no theme color set.
const DefaultThemeColor = "#FF6600"

// Theme returns the project theme color, falling back to the default.
func (s *Snapshot) Theme() string {
	if s.ThemeColor == "" {
		return DefaultThemeColor
	}
	return s.ThemeColor
}
