package web

import "embed"

// TemplatesFS embeds the HTML email templates.
//
//go:embed templates/email/*.html
var TemplatesFS embed.FS
