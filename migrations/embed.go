// Package migrations embeds the SQL migration files for the Postgres claim
// store so goose can apply them from tests and at server start.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass it to goose.NewProvider rather than relying on a filesystem path at
// runtime.
//
//go:embed *.sql
var FS embed.FS
