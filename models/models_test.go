package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsyacht/models"
)

func TestNewItemGUIDPriority(t *testing.T) {
	tests := []struct {
		name     string
		guid     string
		link     string
		content  string
		expected string
	}{
		{
			name:     "explicit guid wins",
			guid:     "tag:example,2023:1",
			link:     "https://example.com/post",
			content:  "body",
			expected: "tag:example,2023:1",
		},
		{
			name:     "link is the fallback",
			link:     "https://example.com/post",
			content:  "body",
			expected: "https://example.com/post",
		},
		{
			name:     "content hash as last resort",
			content:  "body",
			expected: "230d8358dc8e8890b4c58deeb62912ee2f20357ae92a5cc861b98e68fe31acb5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := models.NewItem("title", tt.content, tt.link, "", "", tt.guid, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.GUID)
		})
	}
}

func TestNewItemContentHashIsDeterministic(t *testing.T) {
	first, err := models.NewItem("", "same content", "", "", "", "", nil)
	require.NoError(t, err)
	second, err := models.NewItem("", "same content", "", "", "", "", nil)
	require.NoError(t, err)

	assert.Equal(t, first.GUID, second.GUID)
}

func TestNewItemWithoutIdentityFails(t *testing.T) {
	_, err := models.NewItem("a title but nothing else", "", "", "author", "", "", nil)
	assert.ErrorIs(t, err, models.ErrNoIdentity)
}

func TestNewItemNormalizesDateToUTC(t *testing.T) {
	oslo := time.FixedZone("CEST", 2*60*60)
	date := time.Date(2023, 5, 1, 10, 0, 0, 0, oslo)

	item, err := models.NewItem("", "", "https://example.com", "", "", "", &date)
	require.NoError(t, err)

	require.NotNil(t, item.Date)
	assert.Equal(t, time.UTC, item.Date.Location())
	assert.Equal(t, time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC), *item.Date)
	assert.Equal(t, "2023-05-01T08:00:00Z", item.DateString())
	assert.Equal(t, "2023-05-01", item.Day())
}

func TestMergeFeedMetadata(t *testing.T) {
	old := models.DbFeed{
		ID:           1,
		URL:          "https://example.com/feed",
		Title:        "Old title",
		Description:  "Old description",
		ETag:         "old-etag",
		LastModified: "Mon, 01 Jan 2024 00:00:00 GMT",
	}

	t.Run("non-empty values replace", func(t *testing.T) {
		merged := models.MergeFeedMetadata(old, "new-etag", "Tue, 02 Jan 2024 00:00:00 GMT", &models.Feed{
			Title:       "New title",
			Description: "New description",
		})

		assert.Equal(t, "New title", merged.Title)
		assert.Equal(t, "New description", merged.Description)
		assert.Equal(t, "new-etag", merged.ETag)
		assert.Equal(t, "Tue, 02 Jan 2024 00:00:00 GMT", merged.LastModified)
	})

	t.Run("empty values preserve stale metadata", func(t *testing.T) {
		merged := models.MergeFeedMetadata(old, "", "", &models.Feed{})

		assert.Equal(t, old, merged)
	})
}
