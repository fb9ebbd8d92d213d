// Package web embeds the login and dashboard pages plus their assets so the
// binary ships self-contained.
package web

import "embed"

// TemplatesFS holds the server-rendered HTML pages.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and client scripts.
//
//go:embed static/*
var StaticFS embed.FS
