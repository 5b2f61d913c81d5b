// Package web holds the HTML templates and static assets of the dinners
// web app, compiled into the binary.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var Static embed.FS
