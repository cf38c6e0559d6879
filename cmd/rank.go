package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/db"
)

func rankCmd() *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "Re-rank unread items with the trained model",
		Description: `Scores every unread item with the vote-trained model and writes the
predicted-interest score back to the cache. The ranked home view orders
by this score within each day.`,
		Flags: commonFlags(),
		Action: func(ctx *cli.Context) error {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			model, err := database.LoadModel()
			if err != nil {
				return err
			}

			items, err := database.GetItems(db.ItemFilter{Read: db.UnreadOnly})
			if err != nil {
				return err
			}

			scores := make(map[int64]float64, len(items))
			for _, item := range items {
				scores[item.ID] = model.ScoreText(item.Title + " " + item.Content)
			}

			if err := database.UpdateItemScores(scores); err != nil {
				return err
			}

			log.WithField("items", len(scores)).Info("Re-ranked unread items")
			return nil
		},
	}
}
