// Package migrations embeds the Postgres schema so cmd/migrate and the store
// tests apply the same files.
package migrations

import "embed"

// FS holds every *.up.sql file in this directory.
//
//go:embed *.up.sql
var FS embed.FS
