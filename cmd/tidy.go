package cmd

import (
	"fmt"

	"github.com/cqroot/prompt"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/config"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Tidy up the database",
		Description: `Tidy up the database by removing read items that are old.

		Removes read items older than the retention window to keep the
		cache size down. Unread items are kept regardless of age.`,
		Flags: append(commonFlags(),
			&cli.IntFlag{
				Name:    "days",
				Usage:   "Retention window in days, defaults to tidy_days from config.toml",
				EnvVars: []string{"NEWSYACHT_TIDY_DAYS"},
			},
		),
		Action: func(ctx *cli.Context) error {
			settings, err := config.LoadSettings(settingsPath(ctx))
			if err != nil {
				return err
			}

			days := ctx.Int("days")
			if days <= 0 {
				days = settings.TidyDays
			}

			answer, err := prompt.New().
				Ask(fmt.Sprintf("Delete read items older than %d days?", days)).
				Choose([]string{"yes", "no"})
			if err != nil {
				return err
			}
			if answer != "yes" {
				return nil
			}

			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			deleted, err := database.Tidy(days)
			if err != nil {
				return err
			}

			log.WithField("deleted", deleted).Info("Tidy complete")
			return nil
		},
	}
}
