package feeds

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"newsyacht/models"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 5 * time.Second

// Pipeline fetches subscriptions sequentially, parses their bodies, and
// assigns initial scores. Network failures are isolated per subscription; a
// parse failure aborts the whole batch.
type Pipeline struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewPipeline(userAgent string, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Update fetches every subscription conditionally, merges fresh metadata
// into subs in place (the caller persists the mutated copies afterwards)
// and returns all freshly parsed items with their initial scores for one
// bulk write.
func (p *Pipeline) Update(ctx context.Context, subs []models.DbFeed) ([]models.ScoredItem, error) {
	var items []models.ScoredItem

	for i := range subs {
		feed := &subs[i]

		body, etag, lastModified, ok := p.fetch(ctx, *feed)
		if !ok {
			continue
		}

		parsed, err := Parse(body)
		if err != nil {
			// A malformed feed likely means a systemic problem; surfacing it
			// beats silently dropping the subscription's content forever.
			log.WithField("url", feed.URL).WithError(err).Error("Failed to parse feed")
			return nil, fmt.Errorf("parse %s: %w", feed.URL, err)
		}

		*feed = models.MergeFeedMetadata(*feed, etag, lastModified, parsed)

		for n, item := range parsed.Items {
			items = append(items, models.ScoredItem{
				FeedID: feed.ID,
				Score:  initialScore(n),
				Item:   item,
			})
		}
	}

	return items, nil
}

// fetch issues one conditional request. ok is false when there is nothing
// to parse for this subscription, whether because the cache is still fresh
// or because the fetch failed recoverably.
func (p *Pipeline) fetch(ctx context.Context, feed models.DbFeed) (body []byte, etag, lastModified string, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		log.WithField("url", feed.URL).WithError(err).Error("Failed to build request")
		return nil, "", "", false
	}

	req.Header.Set("User-Agent", p.userAgent)
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.WithFields(log.Fields{
			"url":     feed.URL,
			"timeout": p.timeout,
		}).WithError(err).Error("Failed to retrieve feed")
		return nil, "", "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		log.WithField("url", feed.URL).Info("Feed is up to date")
		return nil, "", "", false
	}

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"url":    feed.URL,
			"status": resp.StatusCode,
		}).Error("Failed to retrieve feed")
		return nil, "", "", false
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		log.WithField("url", feed.URL).WithError(err).Error("Failed to read feed body")
		return nil, "", "", false
	}

	return body, resp.Header.Get("Etag"), resp.Header.Get("Last-Modified"), true
}

// initialScore decays exponentially with the item's zero-based position in
// this batch, bounded in (0, 1]. The small jitter breaks exact ties between
// items from different feeds sharing a position without reordering items
// within one feed.
func initialScore(n int) float64 {
	eps := 0.1 * rand.Float64()
	return math.Exp(-(float64(n) + eps))
}
