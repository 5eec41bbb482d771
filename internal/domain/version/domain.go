package version

import "time"

type Version struct {
	ID         int64     `json:"id"`
	Version    string    `json:"version"`
	DetectedAt time.Time `json:"detected_at"`
}
