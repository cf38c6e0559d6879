package server_test

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsyacht/config"
	"newsyacht/db"
	"newsyacht/models"
	"newsyacht/server"
)

// seedDatabase creates a cache with one subscription and one fresh unread
// item, returning the database path and the item's id.
func seedDatabase(t *testing.T) (string, int64) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.db")

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.UpsertSubscriptions([]config.Subscription{
		{URL: "https://a.example/feed", Color: "#ff6600"},
	}))

	feeds, err := database.GetSubscriptions([]string{"https://a.example/feed"})
	require.NoError(t, err)
	require.Len(t, feeds, 1)

	now := time.Now().UTC()
	item, err := models.NewItem("Fresh post", "great stuff about ferries", "https://a.example/post", "alice", "", "g1", &now)
	require.NoError(t, err)

	require.NoError(t, database.UpsertItems([]models.ScoredItem{
		{FeedID: feeds[0].ID, Score: 0.9, Item: item},
	}))

	items, err := database.GetItems(db.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	return path, items[0].ID
}

func TestHomeShowsUnreadItems(t *testing.T) {
	path, _ := seedDatabase(t)
	app := server.Server(&server.ServerConfig{Database: path, HomeDays: 3})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Fresh post")
}

func TestReadRedirectsAndMarksRead(t *testing.T) {
	path, itemID := seedDatabase(t)
	app := server.Server(&server.ServerConfig{Database: path, HomeDays: 3})

	resp, err := app.Test(httptest.NewRequest("GET", "/read/"+strconv.FormatInt(itemID, 10), nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "https://a.example/post", resp.Header.Get("Location"))

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	item, err := database.GetItem(itemID)
	require.NoError(t, err)
	assert.True(t, item.IsRead)

	// The read item has moved off the home view into the archive.
	unread, err := database.GetItems(db.ItemFilter{Read: db.UnreadOnly})
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkReturnsNoContent(t *testing.T) {
	path, itemID := seedDatabase(t)
	app := server.Server(&server.ServerConfig{Database: path, HomeDays: 3})

	resp, err := app.Test(httptest.NewRequest("POST", "/mark/"+strconv.FormatInt(itemID, 10), nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 204, resp.StatusCode)
}

func TestVoteTrainsModelAndRedirects(t *testing.T) {
	path, itemID := seedDatabase(t)
	app := server.Server(&server.ServerConfig{Database: path, HomeDays: 3})

	resp, err := app.Test(httptest.NewRequest("POST", "/vote/"+strconv.FormatInt(itemID, 10)+"/up", nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 302, resp.StatusCode)

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	model, err := database.LoadModel()
	require.NoError(t, err)
	assert.Equal(t, int64(1), model.UpDocs)
	assert.Greater(t, model.Tokens["ferries"].Up, int64(0))

	item, err := database.GetItem(itemID)
	require.NoError(t, err)
	assert.True(t, item.IsRead)
}

func TestVoteRejectsUnknownDirection(t *testing.T) {
	path, itemID := seedDatabase(t)
	app := server.Server(&server.ServerConfig{Database: path, HomeDays: 3})

	resp, err := app.Test(httptest.NewRequest("POST", "/vote/"+strconv.FormatInt(itemID, 10)+"/sideways", nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
}
