package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNoIdentity is returned when an item carries no GUID, link, or content
// to derive a stable identity from.
var ErrNoIdentity = errors.New("item has no GUID, link, or content")

// Item is a single entry of a parsed feed, without any of the state tracked
// in the database. Empty strings mean the source element was absent.
type Item struct {
	Title    string
	Content  string
	Link     string
	Author   string
	Comments string // optional link to a comments page

	// Date is the publication instant normalized to UTC, nil when the feed
	// did not provide one or it could not be parsed.
	Date *time.Time

	// GUID is the dedup identity, always non-empty after construction.
	GUID string
}

// NewItem builds an Item and resolves its GUID: the feed-supplied guid wins,
// then the link, then a SHA-256 hash of the content. An item with none of
// the three has no usable identity and fails with ErrNoIdentity.
func NewItem(title, content, link, author, comments, guid string, date *time.Time) (Item, error) {
	item := Item{
		Title:    title,
		Content:  content,
		Link:     link,
		Author:   author,
		Comments: comments,
	}

	switch {
	case guid != "":
		item.GUID = guid
	case link != "":
		item.GUID = link
	case content != "":
		sum := sha256.Sum256([]byte(content))
		item.GUID = hex.EncodeToString(sum[:])
	default:
		return Item{}, ErrNoIdentity
	}

	if date != nil {
		utc := date.UTC()
		item.Date = &utc
	}

	return item, nil
}

// DateString renders the date as RFC 3339 in UTC, the form stored in the
// database. Empty when the item has no date.
func (i Item) DateString() string {
	if i.Date == nil {
		return ""
	}
	return i.Date.UTC().Format(time.RFC3339)
}

// Day returns the date truncated to YYYY-MM-DD, used for day-granularity
// ordering and display.
func (i Item) Day() string {
	if i.Date == nil {
		return ""
	}
	return i.Date.UTC().Format("2006-01-02")
}

// Feed is the canonical parse result for one RSS or Atom document. It is
// produced fresh on every parse and never mutated.
type Feed struct {
	Title       string
	Link        string
	Description string
	Items       []Item
}

// DbFeed is a subscription as stored in the database.
type DbFeed struct {
	ID           int64
	URL          string
	Title        string
	Description  string
	ETag         string
	LastModified string
	Color        string
}

// MergeFeedMetadata returns a copy of feed with title, description, etag and
// last-modified replaced by the fetched values when those are non-empty.
// Stale metadata survives empty responses this way.
func MergeFeedMetadata(feed DbFeed, etag, lastModified string, parsed *Feed) DbFeed {
	if parsed.Title != "" {
		feed.Title = parsed.Title
	}
	if parsed.Description != "" {
		feed.Description = parsed.Description
	}
	if etag != "" {
		feed.ETag = etag
	}
	if lastModified != "" {
		feed.LastModified = lastModified
	}
	return feed
}

// DbItem is an item as stored in the database, the parsed fields plus read
// state, ranking score, and the color denormalized from its subscription.
type DbItem struct {
	ID     int64
	FeedID int64
	IsRead bool
	Score  float64
	Color  string

	Item
}

// ScoredItem pairs a freshly parsed item with its subscription and initial
// score, ready for a bulk upsert.
type ScoredItem struct {
	FeedID int64
	Score  float64
	Item   Item
}

// Vote is the feedback kind for the scoring model.
type Vote int

const (
	VoteUp Vote = iota
	VoteDown
)

func (v Vote) String() string {
	if v == VoteUp {
		return "up"
	}
	return "down"
}

// ParseVote maps the CLI/HTTP spelling of a vote to its Vote value.
func ParseVote(s string) (Vote, error) {
	switch s {
	case "up":
		return VoteUp, nil
	case "down":
		return VoteDown, nil
	}
	return 0, errors.New("vote must be \"up\" or \"down\"")
}
