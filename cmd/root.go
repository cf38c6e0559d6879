package cmd

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/db"
)

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func RootApp() *cli.App {
	return &cli.App{
		Name:  "newsyacht",
		Usage: "A ranked RSS and Atom reader with a local cache",
		Description: `Newsyacht fetches your subscribed RSS and Atom feeds into a local
		SQLite cache, deduplicates the entries, and ranks them with a
		naive-Bayes model trained from your up and down votes.

		Subscriptions live in a plain "urls" file in the config directory,
		one URL per line with an optional color as the second column.

		Flags can generally be set via environment variables, e.g.:

		--config-dir => NEWSYACHT_CONFIG_DIR=~/.config/newsyacht
		--database => NEWSYACHT_DATABASE=cache.db
		`,
		Commands: []*cli.Command{
			updateCmd(),
			listCmd(),
			rankCmd(),
			serveCmd(),
			voteCmd(),
			migrateCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Aliases: []string{"c"},
			Usage:   "Directory holding the urls file, config.toml and the cache",
			EnvVars: []string{"NEWSYACHT_CONFIG_DIR"},
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Usage:   "SQLite cache file location, defaults to cache.db in the config dir",
			EnvVars: []string{"NEWSYACHT_DATABASE"},
		},
	}
}

func configDir(ctx *cli.Context) string {
	if dir := ctx.String("config-dir"); dir != "" {
		return dir
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "newsyacht")
}

func databasePath(ctx *cli.Context) string {
	if path := ctx.String("database"); path != "" {
		return path
	}
	return filepath.Join(configDir(ctx), "cache.db")
}

func urlsPath(ctx *cli.Context) string {
	return filepath.Join(configDir(ctx), "urls")
}

func settingsPath(ctx *cli.Context) string {
	return filepath.Join(configDir(ctx), "config.toml")
}

// openDatabase creates the config directory if needed and opens the cache,
// running migrations in the process.
func openDatabase(ctx *cli.Context) (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(databasePath(ctx)), 0o755); err != nil {
		return nil, err
	}
	return db.Open(databasePath(ctx))
}
