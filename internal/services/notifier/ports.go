package notifier

import (
	"context"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
	"github.com/NordCoder/Versionwatch/internal/domain/notification"
	"github.com/NordCoder/Versionwatch/internal/domain/preference"
	"github.com/NordCoder/Versionwatch/internal/domain/user"
)

type ChannelLister interface {
	List(ctx context.Context) ([]*channel.Channel, error)
}

type PreferenceReader interface {
	ListActiveUserIDsForChannel(ctx context.Context, channelID int64) ([]string, error)
	GetForUserChannel(ctx context.Context, userID string, channelID int64) (*preference.Preference, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type HistoryWriter interface {
	Record(ctx context.Context, h *notification.History) error
}
