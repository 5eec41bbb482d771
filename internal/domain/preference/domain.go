package preference

import (
	"encoding/json"
	"time"
)

type Preference struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	ChannelID     int64           `json:"channel_id"`
	ChannelConfig json.RawMessage `json:"channel_config"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Update carries the fields a caller wants to change. Nil means keep.
type Update struct {
	ChannelConfig *json.RawMessage
	IsActive      *bool
}
