package migrations

import "embed"

// FS contains embedded SQLite migrations for pi storage.
//
//go:embed *.sql
var FS embed.FS
