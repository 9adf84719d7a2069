package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const MaxMediaDuration = 6 * time.Hour

var ErrInvalidMedia = errors.New("invalid media")

type Author struct {
	ChannelId    string `json:"channel_id"`
	ChannelUrl   string `json:"channel_url"`
	ChannelTitle string `json:"channel_title"`
}

type Thumbnail struct {
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Media is one playable item. It is produced by clients or the search
// provider and never mutated by the room once a session holds it.
type Media struct {
	Id        string        `json:"id"`
	Url       string        `json:"url"`
	Title     string        `json:"title"`
	Author    Author        `json:"author"`
	Duration  time.Duration `json:"-"`
	Thumbnail *Thumbnail    `json:"thumbnail,omitempty"`
}

type mediaJSON struct {
	Id        string     `json:"id"`
	Url       string     `json:"url"`
	Title     string     `json:"title"`
	Author    Author     `json:"author"`
	Duration  int64      `json:"duration_s"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
}

func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(mediaJSON{
		Id:        m.Id,
		Url:       m.Url,
		Title:     m.Title,
		Author:    m.Author,
		Duration:  int64(m.Duration / time.Second),
		Thumbnail: m.Thumbnail,
	})
}

func (m *Media) UnmarshalJSON(data []byte) error {
	var raw mediaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Duration > int64(MaxMediaDuration/time.Second) {
		return fmt.Errorf("%w: duration_s %d is too long", ErrInvalidMedia, raw.Duration)
	}

	*m = Media{
		Id:        raw.Id,
		Url:       raw.Url,
		Title:     raw.Title,
		Author:    raw.Author,
		Duration:  time.Duration(raw.Duration) * time.Second,
		Thumbnail: raw.Thumbnail,
	}

	return nil
}

func (m Media) Validate() error {
	if err := validation.ValidateStruct(&m,
		validation.Field(&m.Id, validation.Required, validation.Length(1, 64)),
		validation.Field(&m.Url, validation.Required, is.URL),
		validation.Field(&m.Title, validation.Length(0, 256)),
		validation.Field(&m.Duration, validation.Required, validation.Min(time.Second), validation.Max(MaxMediaDuration)),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMedia, err)
	}

	return nil
}
