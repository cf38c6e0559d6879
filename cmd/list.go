package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"newsyacht/db"
	"newsyacht/models"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List cached items grouped by feed",
		Description: `Prints every cached item to stdout, grouped under its feed title.`,
		Flags:       commonFlags(),
		Action: func(ctx *cli.Context) error {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			items, err := database.GetItems(db.ItemFilter{})
			if err != nil {
				return err
			}

			grouped := lo.GroupBy(items, func(item models.DbItem) int64 { return item.FeedID })
			for feedID, posts := range grouped {
				title, err := database.GetFeedTitle(feedID)
				if err != nil {
					return err
				}
				if title == "" {
					title = fmt.Sprintf("feed %d", feedID)
				}

				fmt.Println(title)
				for _, post := range posts {
					fmt.Printf("\t%s\n", post.Title)
				}
			}

			return nil
		},
	}
}
