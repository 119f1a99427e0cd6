// Package migrations holds the embedded SQL schema for each relational backend.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
