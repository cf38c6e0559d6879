package db

import (
	"database/sql"
	"fmt"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"newsyacht/config"
	"newsyacht/models"
	"newsyacht/scoring"
)

// withTx runs fn inside a single all-or-nothing transaction, so a crash mid
// batch leaves prior state intact.
func (d *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpsertSubscriptions inserts subscriptions keyed by URL. A re-declared URL
// only has its color overwritten; the fetch metadata columns belong to the
// ingestion pipeline and are left untouched.
func (d *DB) UpsertSubscriptions(subs []config.Subscription) error {
	return d.withTx(func(tx *sql.Tx) error {
		for _, sub := range subs {
			_, err := tx.Exec(`
				INSERT INTO feeds (url, color)
				VALUES (?, ?)
				ON CONFLICT (url) DO UPDATE SET
					color = excluded.color
			`, sub.URL, sub.Color)
			if err != nil {
				return fmt.Errorf("upsert subscription %s: %w", sub.URL, err)
			}
		}
		return nil
	})
}

// UpdateSubscriptions bulk-replaces the fetch metadata of the given
// subscriptions by id.
func (d *DB) UpdateSubscriptions(feeds []models.DbFeed) error {
	return d.withTx(func(tx *sql.Tx) error {
		for _, feed := range feeds {
			ub := sqlbuilder.NewUpdateBuilder()
			ub.Update("feeds").Set(
				ub.Assign("etag", feed.ETag),
				ub.Assign("last_modified", feed.LastModified),
				ub.Assign("title", feed.Title),
				ub.Assign("description", feed.Description),
			).Where(ub.Equal("id", feed.ID))

			query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)
			if _, err := tx.Exec(query, args...); err != nil {
				return fmt.Errorf("update subscription %d: %w", feed.ID, err)
			}
		}
		return nil
	})
}

// UpsertItems inserts items keyed by (feed id, guid). Re-ingesting a known
// guid overwrites the mutable fields in place instead of duplicating the
// row, so edited posts update and unchanged posts are a no-op in effect.
func (d *DB) UpsertItems(items []models.ScoredItem) error {
	return d.withTx(func(tx *sql.Tx) error {
		for _, scored := range items {
			item := scored.Item
			_, err := tx.Exec(`
				INSERT INTO items (feed_id, guid, title, content, link, author, date, comments, score)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (feed_id, guid) DO UPDATE SET
					title = excluded.title,
					content = excluded.content,
					link = excluded.link,
					author = excluded.author,
					date = excluded.date,
					comments = excluded.comments,
					score = excluded.score
			`, scored.FeedID, item.GUID, item.Title, item.Content, item.Link, item.Author, item.DateString(), item.Comments, scored.Score)
			if err != nil {
				return fmt.Errorf("upsert item %s: %w", item.GUID, err)
			}
		}
		return nil
	})
}

// MarkRead flags a single item as read.
func (d *DB) MarkRead(itemID int64) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("items").Set(ub.Assign("is_read", 1)).Where(ub.Equal("id", itemID))

	query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)
	if _, err := d.db.Exec(query, args...); err != nil {
		return fmt.Errorf("mark read %d: %w", itemID, err)
	}
	return nil
}

// UpdateItemScores overwrites the ranking score of the given items.
func (d *DB) UpdateItemScores(scores map[int64]float64) error {
	return d.withTx(func(tx *sql.Tx) error {
		for itemID, score := range scores {
			ub := sqlbuilder.NewUpdateBuilder()
			ub.Update("items").Set(ub.Assign("score", score)).Where(ub.Equal("id", itemID))

			query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)
			if _, err := tx.Exec(query, args...); err != nil {
				return fmt.Errorf("update score for item %d: %w", itemID, err)
			}
		}
		return nil
	})
}

// SaveModel persists one model update: the four aggregate counters are
// overwritten with their new values and each token's count delta is applied
// as an atomic increment. Writing deltas instead of totals keeps reloaded
// in-memory state from being double-counted.
func (d *DB) SaveModel(model *scoring.Model, deltas map[string]int64, vote models.Vote) error {
	return d.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE model
			SET up_docs = ?, down_docs = ?, up_total_tokens = ?, down_total_tokens = ?
			WHERE id = 0
		`, model.UpDocs, model.DownDocs, model.UpTotalTokens, model.DownTotalTokens)
		if err != nil {
			return fmt.Errorf("update model counters: %w", err)
		}

		for token, count := range deltas {
			var up, down int64
			if vote == models.VoteUp {
				up = count
			} else {
				down = count
			}

			_, err := tx.Exec(`
				INSERT INTO model_tokens (text, up, down)
				VALUES (?, ?, ?)
				ON CONFLICT (text) DO UPDATE SET
					up = up + excluded.up,
					down = down + excluded.down
			`, token, up, down)
			if err != nil {
				return fmt.Errorf("update token %q: %w", token, err)
			}
		}

		return nil
	})
}

// Tidy deletes read items older than retentionDays. Items without a date
// are kept.
func (d *DB) Tidy(retentionDays int) (int64, error) {
	del := sqlbuilder.NewDeleteBuilder()
	del.DeleteFrom("items").Where(
		del.Equal("is_read", 1),
		del.NotEqual("date", ""),
		fmt.Sprintf("DATE(date) < DATE('now', '-%d days')", retentionDays),
	)

	query, args := del.BuildWithFlavor(sqlbuilder.SQLite)

	log.WithFields(log.Fields{
		"retentionDays": retentionDays,
	}).Info("Tidying database")

	res, err := d.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("tidy: %w", err)
	}

	return res.RowsAffected()
}
