// Package migrations embeds the goose SQL migrations applied on startup.
package migrations

import "embed"

// FS holds every migration file, ordered by its numeric prefix.
//
//go:embed *.sql
var FS embed.FS
