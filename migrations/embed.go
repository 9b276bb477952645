package migrations

import "embed"

// Files exposes embedded SQL migration files. Postgres migrations live under
// postgres/ and are applied lexicographically; the SQLite schema lives under
// sqlite/.
//
//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS
