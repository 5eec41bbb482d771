package kafka

import (
	"context"
	"time"
)

// VersionDetected is published once per newly stored version.
type VersionDetected struct {
	VersionID  int64     `json:"version_id"`
	Version    string    `json:"version"`
	DetectedAt time.Time `json:"detected_at"`
}

type VersionEvents interface {
	PublishVersionDetected(ctx context.Context, ev VersionDetected) error
}
