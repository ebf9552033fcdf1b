package ytsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "nextPageToken": "CBQQAA",
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "abc"}, "snippet": {"title": "Rock &amp; Roll", "channelTitle": "Band&#39;s Channel"}},
    {"id": {"kind": "youtube#playlist", "playlistId": "PL1"}, "snippet": {"title": "Mix", "channelTitle": "DJ"}},
    {"id": {"kind": "youtube#channel", "channelId": "UC1"}, "snippet": {"title": "Ignored", "channelTitle": "Ignored"}}
  ]
}`

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "lofi beats", r.URL.Query().Get("q"))
		assert.Equal(t, "next", r.URL.Query().Get("pageToken"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := New(&Config{ApiKey: "secret", BaseUrl: srv.URL, MaxResults: 5})
	page, err := c.Search(context.Background(), "lofi beats", "next")
	require.NoError(t, err)

	assert.Equal(t, "CBQQAA", page.NextPageToken)
	assert.Equal(t, []Result{
		{Id: "abc", Title: "Rock & Roll", ChannelTitle: "Band's Channel"},
		{Id: "PL1", Title: "Mix", ChannelTitle: "DJ", IsPlaylist: true},
	}, page.Items)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(&Config{ApiKey: "secret", BaseUrl: srv.URL})
	_, err := c.Search(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSearchNotConfigured(t *testing.T) {
	_, err := New(&Config{}).Search(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
