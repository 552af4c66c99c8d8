// Package migrations embeds the goose SQL migrations for the SQLite store.
package migrations

import "embed"

// FS holds every NNN_name.sql goose migration.
//
//go:embed *.sql
var FS embed.FS
