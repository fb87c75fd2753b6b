// Package migrations embeds the schema migrations for every supported driver.
package migrations

import "embed"

// Bundled at compile time so the binary needs no migration files on disk.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
