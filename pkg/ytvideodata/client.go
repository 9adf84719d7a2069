package ytvideodata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultOEmbedURL = "https://www.youtube.com/oembed"
	defaultPageURL   = "https://youtu.be/"
	defaultAPIURL    = "https://www.googleapis.com/youtube/v3"
)

var (
	ErrNoAPIKey = errors.New("youtube api key is not configured")
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorUrl    string `json:"author_url"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	oembedURL  string
	pageURL    string
	apiURL     string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs points the client at other endpoints, e.g. a test server.
func WithBaseURLs(oembedURL, pageURL, apiURL string) Option {
	return func(c *Client) {
		c.oembedURL = oembedURL
		c.pageURL = pageURL
		c.apiURL = apiURL
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		oembedURL:  defaultOEmbedURL,
		pageURL:    defaultPageURL,
		apiURL:     defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns title, author and thumbnail of a video, falling back to the
// watch page when the video can not be embedded.
func (c *Client) Get(ctx context.Context, videoId string) (*VideoData, error) {
	videoData, err := c.getVideoWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func watchURL(videoId string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoId)
}
