// ABOUTME: Embeds the browser UI templates, static assets, and help pages using go:embed
// ABOUTME: Provides the filesystems the UI handlers read at runtime

package webui

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed docs/help/*.md
var helpDocsFS embed.FS
