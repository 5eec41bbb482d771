package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Versionwatch/internal/domain/channel"
)

var _ channel.Repo = (*ChannelRepo)(nil)

type ChannelRepo struct {
	db *DB
}

func NewChannelRepo(db *DB) *ChannelRepo { return &ChannelRepo{db: db} }

const (
	qChannelList   = `SELECT id, name, config FROM notification_channels ORDER BY id;`
	qChannelByID   = `SELECT id, name, config FROM notification_channels WHERE id = $1;`
	qChannelByName = `SELECT id, name, config FROM notification_channels WHERE name = $1;`
)

func scanChannel(row pgx.Row, c *channel.Channel) error {
	if err := row.Scan(&c.ID, &c.Name, &c.Config); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan channel: %w", err)
	}
	return nil
}

func (r *ChannelRepo) List(ctx context.Context) ([]*channel.Channel, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qChannelList)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var out []*channel.Channel
	for rows.Next() {
		var c channel.Channel
		if err := scanChannel(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *ChannelRepo) GetByID(ctx context.Context, id int64) (*channel.Channel, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c channel.Channel
	if err := scanChannel(r.db.execQueryer(ctx).QueryRow(ctx, qChannelByID, id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChannelRepo) GetByName(ctx context.Context, name string) (*channel.Channel, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c channel.Channel
	if err := scanChannel(r.db.execQueryer(ctx).QueryRow(ctx, qChannelByName, name), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
