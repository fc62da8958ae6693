package chat

import "time"

// Session owns exactly one in-memory transcript for its lifetime.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
