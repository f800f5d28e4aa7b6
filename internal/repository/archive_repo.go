package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"swiftaza/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	archiveKeyPrefix = "deleted_user:"
	archiveIndexKey  = "deleted_users"
)

// ArchiveRepository stores snapshots of deleted users. Records are written
// once and never updated.
type ArchiveRepository interface {
	Archive(ctx context.Context, rec *model.ArchivedUser) error
	Get(ctx context.Context, id string) (*model.ArchivedUser, error)
	// Recent returns up to limit snapshots, newest deletion first.
	Recent(ctx context.Context, limit int64) ([]model.ArchivedUser, error)
}

type archiveRepo struct{ rdb *redis.Client }

func NewArchiveRepository(rdb *redis.Client) ArchiveRepository { return &archiveRepo{rdb: rdb} }

func (r *archiveRepo) Archive(ctx context.Context, rec *model.ArchivedUser) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, archiveKeyPrefix+rec.ID, data, 0)
		pipe.ZAdd(ctx, archiveIndexKey, redis.Z{
			Score:  float64(rec.DeletedAt.UnixMilli()),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", rec.ID, err)
	}
	return nil
}

func (r *archiveRepo) Get(ctx context.Context, id string) (*model.ArchivedUser, error) {
	raw, err := r.rdb.Get(ctx, archiveKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", id, err)
	}
	var rec model.ArchivedUser
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("archive: decode %s: %w", id, err)
	}
	return &rec, nil
}

func (r *archiveRepo) Recent(ctx context.Context, limit int64) ([]model.ArchivedUser, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := r.rdb.ZRevRange(ctx, archiveIndexKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("archive: index: %w", err)
	}
	if len(ids) == 0 {
		return []model.ArchivedUser{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = archiveKeyPrefix + id
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("archive: mget: %w", err)
	}
	out := make([]model.ArchivedUser, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.ArchivedUser
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
