package ytsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseUrl    = "https://www.googleapis.com/youtube/v3"
	defaultMaxResults = 20
)

var (
	ErrNotConfigured = errors.New("search is not configured")
	ErrUpstream      = errors.New("search upstream failed")
)

type Config struct {
	ApiKey     string
	BaseUrl    string
	MaxResults int
	Timeout    time.Duration
}

type Client struct {
	apiKey     string
	baseUrl    string
	maxResults int
	httpClient *http.Client
}

func New(cfg *Config) *Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.ApiKey,
		baseUrl:    baseUrl,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Result struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	IsPlaylist   bool   `json:"isPlaylist"`
}

type Page struct {
	Items         []Result `json:"items"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// Search runs one search.list call. pageToken is opaque and comes from a
// previous Page.
func (c *Client) Search(ctx context.Context, query, pageToken string) (Page, error) {
	if c.apiKey == "" {
		return Page{}, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video,playlist")
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	params.Set("q", query)
	params.Set("key", c.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+"/search?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("%w: unexpected status code: %d", ErrUpstream, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Page{}, fmt.Errorf("%w: failed to decode response: %w", ErrUpstream, err)
	}

	return body.page(), nil
}
