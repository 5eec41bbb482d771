package version

import "context"

type Repo interface {
	// Latest returns the version with the greatest detected_at.
	Latest(ctx context.Context) (*Version, error)
	Create(ctx context.Context, v string) (*Version, error)
	Exists(ctx context.Context, v string) (bool, error)
	GetByString(ctx context.Context, v string) (*Version, error)
	List(ctx context.Context, limit, offset int) ([]*Version, error)
}
