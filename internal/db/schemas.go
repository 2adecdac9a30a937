package db

import "embed"

// sqlSchemas embeds the review graph's SQL migration files so the binary
// can create or upgrade a data directory's graph.db without depending on
// files being present on disk at runtime.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
