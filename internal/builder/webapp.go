package builder

import (
	"fmt"
	"html"
	"strings"

	"github.com/rpggio/appforge/internal/domain/project"
)

// The generated web bundle is a pure function of the snapshot: same
// snapshot, same bytes. No timestamps, hostnames, or random values.

func entryHTML(snap *project.Snapshot) string {
	if snap.SourceMode == project.ModeURLWrapped {
		return wrapperHTML(snap)
	}
	return templateIndexHTML(snap)
}

// wrapperHTML produces the single page for URL-wrapped apps: a branded
// splash that immediately forwards to the target site.
func wrapperHTML(snap *project.Snapshot) string {
	var b strings.Builder
	url := html.EscapeString(snap.WebsiteURL)
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "  <meta name=\"theme-color\" content=\"%s\">\n", html.EscapeString(snap.Theme()))
	fmt.Fprintf(&b, "  <title>%s</title>\n", html.EscapeString(snap.AppName))
	b.WriteString("  <style>\n")
	fmt.Fprintf(&b, "    body { margin: 0; background: %s; display: flex; align-items: center; justify-content: center; height: 100vh; font-family: sans-serif; color: #fff; }\n", html.EscapeString(snap.Theme()))
	b.WriteString("  </style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "  <p>%s</p>\n", html.EscapeString(snap.AppName))
	b.WriteString("  <script>\n")
	fmt.Fprintf(&b, "    window.location.replace(%q);\n", snap.WebsiteURL)
	b.WriteString("  </script>\n")
	fmt.Fprintf(&b, "  <noscript><meta http-equiv=\"refresh\" content=\"0; url=%s\"></noscript>\n", url)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func templateIndexHTML(snap *project.Snapshot) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "  <meta name=\"theme-color\" content=\"%s\">\n", html.EscapeString(snap.Theme()))
	fmt.Fprintf(&b, "  <title>%s</title>\n", html.EscapeString(snap.AppName))
	b.WriteString("  <link rel=\"stylesheet\" href=\"style.css\">\n")
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "  <header class=\"app-header\"><h1>%s</h1></header>\n", html.EscapeString(snap.AppName))
	b.WriteString("  <main id=\"page-root\">\n")
	for i, page := range snap.Pages {
		hidden := ""
		if i > 0 {
			hidden = " hidden"
		}
		fmt.Fprintf(&b, "    <section class=\"page\" id=\"page-%s\"%s>\n", page.Kind, hidden)
		fmt.Fprintf(&b, "      <h2>%s</h2>\n", html.EscapeString(page.Title))
		fmt.Fprintf(&b, "      <div class=\"page-body\">%s</div>\n", html.EscapeString(page.Body))
		b.WriteString("    </section>\n")
	}
	b.WriteString("  </main>\n")
	if snap.BottomNavEnabled && len(snap.Pages) > 1 {
		b.WriteString("  <nav class=\"bottom-nav\">\n")
		for _, page := range snap.Pages {
			fmt.Fprintf(&b, "    <button data-page=\"%s\">%s</button>\n", page.Kind, html.EscapeString(page.Title))
		}
		b.WriteString("  </nav>\n")
	}
	b.WriteString("  <script src=\"app.js\"></script>\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func styleCSS(snap *project.Snapshot) string {
	theme := snap.Theme()
	var b strings.Builder
	fmt.Fprintf(&b, ":root { --theme-color: %s; }\n\n", theme)
	b.WriteString("* { box-sizing: border-box; }\n")
	b.WriteString("body { margin: 0; font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #f5f5f5; }\n")
	b.WriteString(".app-header { background: var(--theme-color); color: #fff; padding: 16px; }\n")
	b.WriteString(".app-header h1 { margin: 0; font-size: 1.2rem; }\n")
	b.WriteString(".page { padding: 16px; padding-bottom: 72px; }\n")
	b.WriteString(".page[hidden] { display: none; }\n")
	b.WriteString(".bottom-nav { position: fixed; bottom: 0; left: 0; right: 0; display: flex; background: #fff; border-top: 1px solid #ddd; }\n")
	b.WriteString(".bottom-nav button { flex: 1; padding: 12px 4px; border: none; background: none; color: #666; font-size: 0.8rem; }\n")
	b.WriteString(".bottom-nav button.active { color: var(--theme-color); font-weight: bold; }\n")
	return b.String()
}

func appJS(snap *project.Snapshot) string {
	var b strings.Builder
	b.WriteString("document.querySelectorAll('.bottom-nav button').forEach(function (btn) {\n")
	b.WriteString("  btn.addEventListener('click', function () {\n")
	b.WriteString("    document.querySelectorAll('.page').forEach(function (p) { p.hidden = true; });\n")
	b.WriteString("    document.querySelectorAll('.bottom-nav button').forEach(function (x) { x.classList.remove('active'); });\n")
	b.WriteString("    var page = document.getElementById('page-' + btn.dataset.page);\n")
	b.WriteString("    if (page) { page.hidden = false; }\n")
	b.WriteString("    btn.classList.add('active');\n")
	b.WriteString("  });\n")
	b.WriteString("});\n")
	if len(snap.Pages) > 0 {
		fmt.Fprintf(&b, "var first = document.querySelector('.bottom-nav button[data-page=%q]');\n", string(snap.Pages[0].Kind))
		b.WriteString("if (first) { first.classList.add('active'); }\n")
	}
	return b.String()
}
