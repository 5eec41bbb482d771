package preference

import (
	"context"
	"encoding/json"
)

// Repo does not check ownership. Callers that act on behalf of a user
// must verify the preference belongs to that user first.
type Repo interface {
	Create(ctx context.Context, userID string, channelID int64, cfg json.RawMessage) (*Preference, error)
	Update(ctx context.Context, id int64, upd Update) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*Preference, error)
	ListForUser(ctx context.Context, userID string) ([]*Preference, error)
	GetForUserChannel(ctx context.Context, userID string, channelID int64) (*Preference, error)
	ListActiveUserIDsForChannel(ctx context.Context, channelID int64) ([]string, error)
}
