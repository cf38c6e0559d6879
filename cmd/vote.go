package cmd

import (
	"errors"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsyacht/models"
)

func voteCmd() *cli.Command {
	return &cli.Command{
		Name:      "vote",
		Usage:     "Record an up or down vote for a cached item",
		ArgsUsage: "<item-id> <up|down>",
		Description: `Trains the ranking model on the item's title and content and marks
the item read. Each invocation counts as one vote event; votes are not
deduplicated, so vote once per item and direction.`,
		Flags: commonFlags(),
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return errors.New("expected an item id and a direction, e.g. \"vote 12 up\"")
			}

			itemID, err := strconv.ParseInt(ctx.Args().Get(0), 10, 64)
			if err != nil {
				return errors.New("item id must be an integer")
			}

			vote, err := models.ParseVote(ctx.Args().Get(1))
			if err != nil {
				return err
			}

			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			item, err := database.GetItem(itemID)
			if err != nil {
				return err
			}

			model, err := database.LoadModel()
			if err != nil {
				return err
			}

			deltas := model.Update(item.Title+" "+item.Content, vote)
			if err := database.SaveModel(model, deltas, vote); err != nil {
				return err
			}

			if err := database.MarkRead(itemID); err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"item": itemID,
				"vote": vote.String(),
			}).Info("Recorded vote")

			return nil
		},
	}
}
