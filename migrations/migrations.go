// Package migrations embeds the bootstrap DDL for every supported dialect.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
