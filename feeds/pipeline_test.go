package feeds_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsyacht/feeds"
	"newsyacht/models"
)

const pipelineDoc = `<rss version="2.0"><channel>
  <title>Pipeline feed</title>
  <item><title>one</title><link>https://p.example/one</link></item>
  <item><title>two</title><link>https://p.example/two</link></item>
  <item><title>three</title><link>https://p.example/three</link></item>
</channel></rss>`

func TestPipelineUpdateFetchesAndScores(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Etag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		w.Write([]byte(pipelineDoc))
	}))
	defer server.Close()

	subs := []models.DbFeed{{ID: 1, URL: server.URL}}
	pipeline := feeds.NewPipeline("newsyacht-test/1.0", time.Second)

	items, err := pipeline.Update(context.Background(), subs)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "newsyacht-test/1.0", gotUserAgent)

	// Fetched metadata is merged back into the slice for the caller to persist.
	assert.Equal(t, "Pipeline feed", subs[0].Title)
	assert.Equal(t, `"v1"`, subs[0].ETag)
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 GMT", subs[0].LastModified)

	// Scores decay with position and stay in (0, 1].
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i].Score, items[i-1].Score)
	}
	for _, item := range items {
		assert.Greater(t, item.Score, 0.0)
		assert.LessOrEqual(t, item.Score, 1.0)
	}
}

func TestPipelineSendsConditionalHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
		assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 GMT", r.Header.Get("If-Modified-Since"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	subs := []models.DbFeed{{
		ID:           1,
		URL:          server.URL,
		Title:        "cached title",
		ETag:         `"v1"`,
		LastModified: "Mon, 01 Jan 2024 00:00:00 GMT",
	}}

	items, err := feeds.NewPipeline("ua", time.Second).Update(context.Background(), subs)
	require.NoError(t, err)

	// 304 means nothing new and nothing clobbered.
	assert.Empty(t, items)
	assert.Equal(t, "cached title", subs[0].Title)
	assert.Equal(t, `"v1"`, subs[0].ETag)
}

func TestPipelineSkipsFailingSubscriptions(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pipelineDoc))
	}))
	defer working.Close()

	unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable.Close()

	subs := []models.DbFeed{
		{ID: 1, URL: failing.URL},
		{ID: 2, URL: unreachable.URL},
		{ID: 3, URL: working.URL},
	}

	items, err := feeds.NewPipeline("ua", time.Second).Update(context.Background(), subs)
	require.NoError(t, err)

	// One broken subscription does not take down the rest of the batch.
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, int64(3), item.FeedID)
	}
}

func TestPipelineAbortsOnMalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not a feed</html>`))
	}))
	defer server.Close()

	subs := []models.DbFeed{{ID: 1, URL: server.URL}}

	_, err := feeds.NewPipeline("ua", time.Second).Update(context.Background(), subs)
	require.Error(t, err)

	var formatErr *feeds.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestPipelineHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(pipelineDoc))
	}))
	defer server.Close()

	subs := []models.DbFeed{{ID: 1, URL: server.URL}}

	items, err := feeds.NewPipeline("ua", 50*time.Millisecond).Update(context.Background(), subs)
	require.NoError(t, err)
	assert.Empty(t, items)
}
