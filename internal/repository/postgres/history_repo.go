package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Versionwatch/internal/domain/notification"
)

var _ notification.Repo = (*HistoryRepo)(nil)

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

const (
	qHistoryInsert = `
INSERT INTO notification_history (user_id, channel_id, version_id, status, error_message, sent_at)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING id, sent_at;`

	qHistoryByUser = `
SELECT id, user_id::text, channel_id, version_id, sent_at, status, error_message
FROM notification_history
WHERE user_id = $1
ORDER BY sent_at DESC, id DESC
LIMIT $2;`
)

func (r *HistoryRepo) Record(ctx context.Context, h *notification.History) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qHistoryInsert,
		h.UserID, h.ChannelID, h.VersionID, string(h.Status), h.ErrorMessage,
	).Scan(&h.ID, &h.SentAt)
	if err != nil {
		return mapWriteErr("history insert", err)
	}
	return nil
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.History, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qHistoryByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []*notification.History{}
	for rows.Next() {
		var (
			h      notification.History
			status string
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.ChannelID, &h.VersionID, &h.SentAt, &status, &h.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.Status = notification.Status(status)
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
