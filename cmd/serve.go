package cmd

import (
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/config"
	"newsyacht/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web interface",
		Description: `Starts the newsyacht web server.

Serves the ranked home view, the archive, and per-feed views from the
local cache, and records read state and votes. Run "update" separately
(for example from cron) to refresh the cache; the server itself never
fetches feeds and keeps serving the last-known-good data.`,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Address to bind the web server to",
				EnvVars: []string{"NEWSYACHT_LISTEN"},
			},
		),
		Action: func(ctx *cli.Context) error {
			settings, err := config.LoadSettings(settingsPath(ctx))
			if err != nil {
				return err
			}

			listen := ctx.String("listen")
			if listen == "" {
				listen = settings.Listen
			}

			// Make sure the schema exists before the first request.
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			database.Close()

			app := server.Server(&server.ServerConfig{
				Database: databasePath(ctx),
				HomeDays: settings.HomeDays,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			go func() {
				<-c
				log.Info("Gracefully shutting down...")
				app.ShutdownWithTimeout(10 * time.Second)
			}()

			log.WithField("listen", listen).Info("Starting server")
			return app.Listen(listen)
		},
	}
}
