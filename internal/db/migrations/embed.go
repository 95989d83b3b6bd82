// Package migrations embeds the SQL schema for the statistics and account tables.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
