package db

import (
	"database/sql"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"

	"newsyacht/models"
	"newsyacht/scoring"
)

var itemColumns = []string{
	"items.id",
	"items.feed_id",
	"items.is_read",
	"items.score",
	"items.title",
	"items.content",
	"items.link",
	"items.author",
	"items.comments",
	"items.date",
	"items.guid",
	"feeds.color",
}

// GetSubscriptions returns the stored subscriptions matching the given
// URLs, ordered by URL for determinism.
func (d *DB) GetSubscriptions(urls []string) ([]models.DbFeed, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "url", "title", "description", "etag", "last_modified", "color").From("feeds")
	sb.Where(sb.In("url", lo.ToAnySlice(urls)...))
	sb.OrderBy("url").Asc()

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var feeds []models.DbFeed
	for rows.Next() {
		var feed models.DbFeed
		if err := rows.Scan(&feed.ID, &feed.URL, &feed.Title, &feed.Description, &feed.ETag, &feed.LastModified, &feed.Color); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		feeds = append(feeds, feed)
	}

	return feeds, rows.Err()
}

// GetItems returns stored items passing the filter, freshest and best
// first: day-granularity date descending, then score descending.
func (d *DB) GetItems(filter ItemFilter) ([]models.DbItem, error) {
	sb := itemsQuery()
	applyFilter(sb, filter)
	return d.queryItems(sb)
}

// GetItemsBySubscription returns all items of one subscription with the
// same ordering as GetItems.
func (d *DB) GetItemsBySubscription(feedID int64) ([]models.DbItem, error) {
	sb := itemsQuery()
	sb.Where(sb.Equal("items.feed_id", feedID))
	applyFilter(sb, ItemFilter{})
	return d.queryItems(sb)
}

// GetItem returns a single item by id.
func (d *DB) GetItem(itemID int64) (models.DbItem, error) {
	sb := itemsQuery()
	sb.Where(sb.Equal("items.id", itemID))

	items, err := d.queryItems(sb)
	if err != nil {
		return models.DbItem{}, err
	}
	if len(items) == 0 {
		return models.DbItem{}, fmt.Errorf("no item with id %d", itemID)
	}
	return items[0], nil
}

func (d *DB) GetFeedTitle(feedID int64) (string, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("title").From("feeds")
	sb.Where(sb.Equal("id", feedID))

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var title string
	if err := d.db.QueryRow(query, args...).Scan(&title); err != nil {
		return "", fmt.Errorf("query error: %w", err)
	}
	return title, nil
}

func (d *DB) GetLink(itemID int64) (string, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("link").From("items")
	sb.Where(sb.Equal("id", itemID))

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var link string
	if err := d.db.QueryRow(query, args...).Scan(&link); err != nil {
		return "", fmt.Errorf("query error: %w", err)
	}
	return link, nil
}

// LoadModel reads the persisted scoring model state: the four aggregate
// counters plus all per-token counts.
func (d *DB) LoadModel() (*scoring.Model, error) {
	model := scoring.NewModel()

	err := d.db.QueryRow(`
		SELECT up_docs, down_docs, up_total_tokens, down_total_tokens
		FROM model
		WHERE id = 0
	`).Scan(&model.UpDocs, &model.DownDocs, &model.UpTotalTokens, &model.DownTotalTokens)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	rows, err := d.db.Query("SELECT text, up, down FROM model_tokens")
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		var counts scoring.TokenCounts
		if err := rows.Scan(&text, &counts.Up, &counts.Down); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		model.Tokens[text] = counts
	}

	return model, rows.Err()
}

func itemsQuery() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(itemColumns...).From("items")
	sb.Join("feeds", "feeds.id = items.feed_id")
	return sb
}

func applyFilter(sb *sqlbuilder.SelectBuilder, filter ItemFilter) {
	if filter.MaxAgeDays > 0 {
		sb.Where(fmt.Sprintf("DATE(items.date) >= DATE('now', '-%d days')", filter.MaxAgeDays))
	}

	switch filter.Read {
	case ReadOnly:
		sb.Where(sb.Equal("items.is_read", 1))
	case UnreadOnly:
		sb.Where(sb.Equal("items.is_read", 0))
	case ReadAny:
	}

	if filter.RequireLink {
		sb.Where(sb.NotEqual("items.link", ""))
	}

	sb.OrderBy("DATE(items.date) DESC", "items.score DESC")
}

func (d *DB) queryItems(sb *sqlbuilder.SelectBuilder) ([]models.DbItem, error) {
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var items []models.DbItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanItem(rows *sql.Rows) (models.DbItem, error) {
	var item models.DbItem
	var date string

	err := rows.Scan(
		&item.ID,
		&item.FeedID,
		&item.IsRead,
		&item.Score,
		&item.Title,
		&item.Content,
		&item.Link,
		&item.Author,
		&item.Comments,
		&date,
		&item.GUID,
		&item.Color,
	)
	if err != nil {
		return models.DbItem{}, fmt.Errorf("scan error: %w", err)
	}

	if date != "" {
		if parsed, err := time.Parse(time.RFC3339, date); err == nil {
			utc := parsed.UTC()
			item.Date = &utc
		}
	}

	return item, nil
}
