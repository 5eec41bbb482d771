package kafka

import (
	"context"

	"github.com/NordCoder/Versionwatch/internal/domain/kafka"
)

const TopicVersionsDetected = "versionwatch.versions.detected"

type VersionEventsKafka struct {
	p *Producer
}

func NewVersionEventsKafka(p *Producer) *VersionEventsKafka { return &VersionEventsKafka{p: p} }

var _ kafka.VersionEvents = (*VersionEventsKafka)(nil)

// PublishVersionDetected keys the message by version string so every
// event for one release lands on the same partition.
func (e *VersionEventsKafka) PublishVersionDetected(ctx context.Context, ev kafka.VersionDetected) error {
	return e.p.PublishJSON(ctx, []byte(ev.Version), ev)
}
