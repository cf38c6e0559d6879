package cmd

import (
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/config"
	"newsyacht/feeds"
)

func updateCmd() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Fetch all subscribed feeds and refresh the cache",
		Description: `Reads the urls file, fetches every subscription with conditional
request headers, and merges the parsed items into the cache.

A feed that times out or answers with an error status is logged and
skipped; a feed that cannot be parsed aborts the whole run with a
non-zero exit, since a malformed document is worth surfacing.`,
		Flags: commonFlags(),
		Action: func(ctx *cli.Context) error {
			settings, err := config.LoadSettings(settingsPath(ctx))
			if err != nil {
				return err
			}

			subs, err := config.LoadSubscriptions(urlsPath(ctx))
			if err != nil {
				return err
			}

			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.UpsertSubscriptions(subs); err != nil {
				return err
			}

			urls := lo.Map(subs, func(sub config.Subscription, _ int) string { return sub.URL })
			subscriptions, err := database.GetSubscriptions(urls)
			if err != nil {
				return err
			}

			pipeline := feeds.NewPipeline(settings.UserAgent, settings.FetchTimeout())
			items, err := pipeline.Update(ctx.Context, subscriptions)
			if err != nil {
				return err
			}

			if err := database.UpdateSubscriptions(subscriptions); err != nil {
				return err
			}
			if err := database.UpsertItems(items); err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"feeds": len(subscriptions),
				"items": len(items),
			}).Info("Update complete")

			return nil
		},
	}
}
