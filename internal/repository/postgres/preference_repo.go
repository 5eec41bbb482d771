package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Versionwatch/internal/domain/preference"
)

var _ preference.Repo = (*PreferenceRepo)(nil)

type PreferenceRepo struct {
	db *DB
}

func NewPreferenceRepo(db *DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

const prefColumns = `id, user_id::text, channel_id, channel_config, is_active, created_at, updated_at`

const (
	qPrefInsert = `
INSERT INTO user_preferences (user_id, channel_id, channel_config, is_active)
VALUES ($1, $2, $3, TRUE)
RETURNING ` + prefColumns + `;`

	qPrefUpdate = `
UPDATE user_preferences
SET channel_config = COALESCE($2, channel_config),
    is_active      = COALESCE($3, is_active),
    updated_at     = now()
WHERE id = $1;`

	qPrefDelete = `DELETE FROM user_preferences WHERE id = $1;`

	qPrefByID = `SELECT ` + prefColumns + ` FROM user_preferences WHERE id = $1;`

	qPrefListForUser = `
SELECT ` + prefColumns + `
FROM user_preferences
WHERE user_id = $1
ORDER BY id;`

	qPrefForUserChannel = `
SELECT ` + prefColumns + `
FROM user_preferences
WHERE user_id = $1 AND channel_id = $2;`

	qPrefActiveUsers = `
SELECT DISTINCT user_id::text
FROM user_preferences
WHERE channel_id = $1 AND is_active = TRUE;`
)

func scanPreference(row pgx.Row, p *preference.Preference) error {
	var cfg []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.ChannelID, &cfg, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan preference: %w", err)
	}
	p.ChannelConfig = json.RawMessage(cfg)
	return nil
}

func (r *PreferenceRepo) Create(ctx context.Context, userID string, channelID int64, cfg json.RawMessage) (*preference.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p preference.Preference
	if err := scanPreference(r.db.execQueryer(ctx).QueryRow(ctx, qPrefInsert, userID, channelID, []byte(cfg)), &p); err != nil {
		return nil, mapWriteErr("preference insert", err)
	}
	return &p, nil
}

// Update reports false when no row has the given id.
func (r *PreferenceRepo) Update(ctx context.Context, id int64, upd preference.Update) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var cfg []byte
	if upd.ChannelConfig != nil {
		cfg = []byte(*upd.ChannelConfig)
	}
	tag, err := r.db.execQueryer(ctx).Exec(ctx, qPrefUpdate, id, cfg, upd.IsActive)
	if err != nil {
		return false, fmt.Errorf("preference update: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PreferenceRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qPrefDelete, id)
	if err != nil {
		return false, fmt.Errorf("preference delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PreferenceRepo) GetByID(ctx context.Context, id int64) (*preference.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p preference.Preference
	if err := scanPreference(r.db.execQueryer(ctx).QueryRow(ctx, qPrefByID, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PreferenceRepo) ListForUser(ctx context.Context, userID string) ([]*preference.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qPrefListForUser, userID)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	out := []*preference.Preference{}
	for rows.Next() {
		var p preference.Preference
		if err := scanPreference(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PreferenceRepo) GetForUserChannel(ctx context.Context, userID string, channelID int64) (*preference.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p preference.Preference
	if err := scanPreference(r.db.execQueryer(ctx).QueryRow(ctx, qPrefForUserChannel, userID, channelID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PreferenceRepo) ListActiveUserIDsForChannel(ctx context.Context, channelID int64) ([]string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qPrefActiveUsers, channelID)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
