package web

import "embed"

// TemplatesFS holds the portal and admin page templates.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the page script served under /static/.
//go:embed static/*
var StaticFS embed.FS
