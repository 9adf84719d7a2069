package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/pkg/ytvideodata"
	"golang.org/x/exp/slices"
)

var (
	ErrInvalidQuery = errors.New("invalid search query")
)

type iVideoData interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
	Search(ctx context.Context, query string, limit int) ([]ytvideodata.SearchResult, error)
}

type service struct {
	videoData   iVideoData
	searchLimit int
	logger      *slog.Logger
}

func NewService(videoData iVideoData, searchLimit int, logger *slog.Logger) *service {
	return &service{
		videoData:   videoData,
		searchLimit: searchLimit,
		logger:      logger,
	}
}

// Search returns playable videos for query, music first.
func (s service) Search(ctx context.Context, query string) ([]domain.Media, error) {
	query = strings.TrimSpace(query)
	if err := validation.Validate(query, validation.Required, validation.RuneLength(1, 200)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	results, err := s.videoData.Search(ctx, query, s.searchLimit)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to search media", "error", err)
		return nil, fmt.Errorf("failed to search media: %w", err)
	}

	found := make([]domain.Media, 0, len(results))
	for _, r := range results {
		m := domain.Media{
			Id:    r.VideoId,
			Url:   "https://www.youtube.com/watch?v=" + r.VideoId,
			Title: r.Title,
			Author: domain.Author{
				ChannelId:    r.ChannelId,
				ChannelTitle: r.ChannelTitle,
			},
			Duration: r.Duration,
		}
		if r.ChannelId != "" {
			m.Author.ChannelUrl = "https://www.youtube.com/channel/" + r.ChannelId
		}
		if r.ThumbnailUrl != "" {
			m.Thumbnail = &domain.Thumbnail{Url: r.ThumbnailUrl, Width: r.ThumbnailWidth, Height: r.ThumbnailHeight}
		}

		// live streams and oversized videos can not be hosted
		if err := m.Validate(); err != nil {
			s.logger.DebugContext(ctx, "skipping search result", "media_id", m.Id, "error", err)
			continue
		}
		found = append(found, m)
	}

	slices.SortStableFunc(found, func(a, b domain.Media) int {
		return musicScore(b.Title) - musicScore(a.Title)
	})

	return found, nil
}

// Complete fills missing display fields of a media item a client sent.
// Lookup failures leave the item as it was.
func (s service) Complete(ctx context.Context, m domain.Media) domain.Media {
	if m.Title != "" && m.Author.ChannelTitle != "" && m.Thumbnail != nil {
		return m
	}

	data, err := s.videoData.Get(ctx, m.Id)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get video data", "media_id", m.Id, "error", err)
		return m
	}

	if m.Title == "" {
		m.Title = data.Title
	}
	if m.Author.ChannelTitle == "" {
		m.Author.ChannelTitle = data.AuthorName
		m.Author.ChannelUrl = data.AuthorUrl
	}
	if m.Thumbnail == nil && data.ThumbnailUrl != "" {
		m.Thumbnail = &domain.Thumbnail{Url: data.ThumbnailUrl}
	}

	return m
}

func musicScore(title string) int {
	title = strings.ToLower(title)
	score := 0
	for _, keyword := range musicKeywords {
		if containsWord(title, keyword) {
			score++
		}
	}
	return score
}

// containsWord reports whether keyword occurs in s on word boundaries.
func containsWord(s, keyword string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], keyword)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(keyword)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
