package notification

import "context"

type Repo interface {
	Record(ctx context.Context, h *History) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*History, error)
}
