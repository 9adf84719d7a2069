package chat

import "time"

type Message struct {
	Id             string    `json:"id"`
	Content        string    `json:"content"`
	AuthorId       string    `json:"author_id"`
	UsernameAtDate string    `json:"username_at_date"`
	Date           time.Time `json:"date"`
}

type AddMessageParams struct {
	RoomId  string
	Message Message
}
