// Package migrations embeds the schema files for every supported SQL dialect.
package migrations

import "embed"

// FS holds sqlite/, postgres/ and mysql/ migration directories
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
