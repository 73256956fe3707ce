package metadata

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsDir embed.FS

// Migrations holds the embedded schema migrations, rooted at the directory
// that contains the .sql files so the migrator can glob them directly.
var Migrations fs.FS

func init() {
	sub, err := fs.Sub(migrationsDir, "migrations")
	if err != nil {
		panic(err)
	}
	Migrations = sub
}
