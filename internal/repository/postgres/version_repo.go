package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Versionwatch/internal/domain/version"
)

var _ version.Repo = (*VersionRepo)(nil)

type VersionRepo struct {
	db *DB
}

func NewVersionRepo(db *DB) *VersionRepo { return &VersionRepo{db: db} }

const (
	qVersionInsert = `
INSERT INTO versions (version, detected_at)
VALUES ($1, now())
RETURNING id, version, detected_at;`

	qVersionLatest = `
SELECT id, version, detected_at
FROM versions
ORDER BY detected_at DESC, id DESC
LIMIT 1;`

	qVersionExists = `SELECT EXISTS (SELECT 1 FROM versions WHERE version = $1);`

	qVersionByString = `
SELECT id, version, detected_at
FROM versions
WHERE version = $1;`

	qVersionList = `
SELECT id, version, detected_at
FROM versions
ORDER BY detected_at DESC, id DESC
LIMIT $1 OFFSET $2;`
)

func scanVersion(row pgx.Row, v *version.Version) error {
	if err := row.Scan(&v.ID, &v.Version, &v.DetectedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan version: %w", err)
	}
	return nil
}

func (r *VersionRepo) Latest(ctx context.Context) (*version.Version, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var v version.Version
	if err := scanVersion(r.db.execQueryer(ctx).QueryRow(ctx, qVersionLatest), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Create joins the ambient transaction when there is one.
func (r *VersionRepo) Create(ctx context.Context, v string) (*version.Version, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var out version.Version
	err := r.db.execQueryer(ctx).QueryRow(ctx, qVersionInsert, v).
		Scan(&out.ID, &out.Version, &out.DetectedAt)
	if err != nil {
		return nil, mapWriteErr("version insert", err)
	}
	return &out, nil
}

func (r *VersionRepo) Exists(ctx context.Context, v string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qVersionExists, v).Scan(&ok); err != nil {
		return false, fmt.Errorf("version exists: %w", err)
	}
	return ok, nil
}

func (r *VersionRepo) GetByString(ctx context.Context, v string) (*version.Version, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var out version.Version
	if err := scanVersion(r.db.execQueryer(ctx).QueryRow(ctx, qVersionByString, v), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *VersionRepo) List(ctx context.Context, limit, offset int) ([]*version.Version, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qVersionList, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	out := make([]*version.Version, 0, limit)
	for rows.Next() {
		var v version.Version
		if err := scanVersion(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
