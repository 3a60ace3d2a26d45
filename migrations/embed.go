// Package migrations holds the versioned SQL schema applied by the migrator.
package migrations

import "embed"

// FS contains every NNN_name.sql file of this directory.
//
//go:embed *.sql
var FS embed.FS
