package blog

import "embed"

// The build index schema ships inside the binary so a fresh checkout
// needs no external migration step. Files apply in lexical order.
//
//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS exposes the embedded index migrations for callers that
// assemble their own container instead of going through New.
func MigrationsFS() embed.FS {
	return migrationsFS
}
