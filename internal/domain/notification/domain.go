package notification

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// History is one delivery attempt of a version to a user over a channel.
type History struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	ChannelID    int64     `json:"channel_id"`
	VersionID    int64     `json:"version_id"`
	SentAt       time.Time `json:"sent_at"`
	Status       Status    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}
