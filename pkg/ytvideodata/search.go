package ytvideodata

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type SearchResult struct {
	VideoId         string
	Title           string
	ChannelId       string
	ChannelTitle    string
	ThumbnailUrl    string
	ThumbnailWidth  int
	ThumbnailHeight int
	Duration        time.Duration
}

type thumbnail struct {
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type searchResponse struct {
	Items []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string               `json:"title"`
			ChannelId    string               `json:"channelId"`
			ChannelTitle string               `json:"channelTitle"`
			Thumbnails   map[string]thumbnail `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		Id             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Search runs a video search and fills in durations with a second
// videos.list call. Results keep the order returned by the API.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", strconv.Itoa(limit))
	q.Set("q", query)
	q.Set("key", c.apiKey)

	var found searchResponse
	if err := c.getJSON(ctx, c.apiURL+"/search?"+q.Encode(), &found); err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	results := make([]SearchResult, 0, len(found.Items))
	ids := make([]string, 0, len(found.Items))
	for _, item := range found.Items {
		if item.Id.VideoId == "" {
			continue
		}
		thumb := pickThumbnail(item.Snippet.Thumbnails)
		results = append(results, SearchResult{
			VideoId:         item.Id.VideoId,
			Title:           item.Snippet.Title,
			ChannelId:       item.Snippet.ChannelId,
			ChannelTitle:    item.Snippet.ChannelTitle,
			ThumbnailUrl:    thumb.Url,
			ThumbnailWidth:  thumb.Width,
			ThumbnailHeight: thumb.Height,
		})
		ids = append(ids, item.Id.VideoId)
	}
	if len(ids) == 0 {
		return results, nil
	}

	q = url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", c.apiKey)

	var details videosResponse
	if err := c.getJSON(ctx, c.apiURL+"/videos?"+q.Encode(), &details); err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	durations := make(map[string]time.Duration, len(details.Items))
	for _, item := range details.Items {
		d, err := ParseDuration(item.ContentDetails.Duration)
		if err != nil {
			continue
		}
		durations[item.Id] = d
	}
	for i := range results {
		results[i].Duration = durations[results[i].VideoId]
	}

	return results, nil
}

func pickThumbnail(thumbnails map[string]thumbnail) thumbnail {
	for _, key := range []string{"high", "medium", "default"} {
		if t, ok := thumbnails[key]; ok {
			return t
		}
	}
	return thumbnail{}
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration parses the ISO 8601 durations used by the Data API, e.g.
// PT4M13S or P1DT2H.
func ParseDuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}

	return d, nil
}
