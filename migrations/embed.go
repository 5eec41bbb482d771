// Package migrations ships the goose SQL files inside the migrator binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
