package checker

import (
	"context"

	"github.com/NordCoder/Versionwatch/internal/domain/outbox"
	"github.com/NordCoder/Versionwatch/internal/domain/version"
	"github.com/NordCoder/Versionwatch/internal/services/notifier"
)

type VersionStore interface {
	Latest(ctx context.Context) (*version.Version, error)
	Exists(ctx context.Context, v string) (bool, error)
	Create(ctx context.Context, v string) (*version.Version, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Fetcher interface {
	DownloadURL(ctx context.Context) (string, error)
}

type Fanout interface {
	NotifyAll(ctx context.Context, v *version.Version) notifier.Report
}
