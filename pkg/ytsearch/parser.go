package ytsearch

import "golang.org/x/net/html"

type searchResponse struct {
	NextPageToken string       `json:"nextPageToken"`
	Items         []searchItem `json:"items"`
}

type searchItem struct {
	Id struct {
		Kind       string `json:"kind"`
		VideoId    string `json:"videoId"`
		PlaylistId string `json:"playlistId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

const (
	kindVideo    = "youtube#video"
	kindPlaylist = "youtube#playlist"
)

// page drops channels and other kinds the queue cannot play. Titles come
// HTML-escaped from the API.
func (r searchResponse) page() Page {
	items := make([]Result, 0, len(r.Items))
	for _, item := range r.Items {
		var result Result
		switch item.Id.Kind {
		case kindVideo:
			result.Id = item.Id.VideoId
		case kindPlaylist:
			result.Id = item.Id.PlaylistId
			result.IsPlaylist = true
		default:
			continue
		}

		if result.Id == "" {
			continue
		}

		result.Title = html.UnescapeString(item.Snippet.Title)
		result.ChannelTitle = html.UnescapeString(item.Snippet.ChannelTitle)
		items = append(items, result)
	}

	return Page{
		Items:         items,
		NextPageToken: r.NextPageToken,
	}
}
