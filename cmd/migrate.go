package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"newsyacht/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the cache file. Will create the database if it does not exist.`,
		Flags:       commonFlags(),
		Action: func(ctx *cli.Context) error {
			path := databasePath(ctx)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}

			fmt.Printf("Database configured: %s\n", path)
			return db.Migrate(path)
		},
	}
}
