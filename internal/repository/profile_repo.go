package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"swiftaza/internal/model"

	"github.com/redis/go-redis/v9"
)

// Profile cache key layout. The record lives under profile:{id}; the other
// keys are secondary indexes holding the id.
const (
	profileKeyPrefix   = "profile:"
	profileEmailPrefix = "profile:email:"
	profileNamePrefix  = "profile:name:"
	profileCardPrefix  = "profile:card:"
)

// ProfileRepository is the document-store side of a user: a denormalized
// record that is rebuilt from the credential store on every write.
type ProfileRepository interface {
	Put(ctx context.Context, rec *model.ProfileRecord) error
	Get(ctx context.Context, id string) (*model.ProfileRecord, error)
	FindBy(ctx context.Context, field LookupField, value string) (*model.ProfileRecord, error)
	Delete(ctx context.Context, id string) error
}

type profileRepo struct{ rdb *redis.Client }

func NewProfileRepository(rdb *redis.Client) ProfileRepository { return &profileRepo{rdb: rdb} }

func profileKey(id string) string { return profileKeyPrefix + id }

func indexKeys(rec *model.ProfileRecord) map[string]string {
	keys := map[string]string{
		profileEmailPrefix + strings.ToLower(rec.Email): rec.ID,
		profileNamePrefix + rec.FullName:                rec.ID,
	}
	if rec.CardNumber != nil && *rec.CardNumber != "" {
		keys[profileCardPrefix+*rec.CardNumber] = rec.ID
	}
	return keys
}

// Put replaces the record and its indexes. Index entries of the previous
// version that no longer apply are removed when they still point at this id.
func (r *profileRepo) Put(ctx context.Context, rec *model.ProfileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}

	prev, err := r.Get(ctx, rec.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next := indexKeys(rec)
	var stale []string
	if prev != nil {
		for k := range indexKeys(prev) {
			if _, keep := next[k]; !keep {
				stale = append(stale, k)
			}
		}
	}
	stale, err = r.ownedBy(ctx, rec.ID, stale)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, profileKey(rec.ID), data, 0)
		for k, id := range next {
			pipe.Set(ctx, k, id, 0)
		}
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("profile: put %s: %w", rec.ID, err)
	}
	return nil
}

func (r *profileRepo) Get(ctx context.Context, id string) (*model.ProfileRecord, error) {
	raw, err := r.rdb.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get %s: %w", id, err)
	}
	var rec model.ProfileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("profile: decode %s: %w", id, err)
	}
	return &rec, nil
}

func (r *profileRepo) FindBy(ctx context.Context, field LookupField, value string) (*model.ProfileRecord, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrNotFound
	}
	var idxKey string
	switch field {
	case ByID:
		return r.Get(ctx, value)
	case ByEmail:
		idxKey = profileEmailPrefix + strings.ToLower(value)
	case ByFullName:
		idxKey = profileNamePrefix + value
	case ByCardNumber:
		idxKey = profileCardPrefix + value
	default:
		return nil, ErrNotFound
	}

	id, err := r.rdb.Get(ctx, idxKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: index %s: %w", idxKey, err)
	}
	return r.Get(ctx, id)
}

func (r *profileRepo) Delete(ctx context.Context, id string) error {
	rec, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	candidates := make([]string, 0, 3)
	for k := range indexKeys(rec) {
		candidates = append(candidates, k)
	}
	owned, err := r.ownedBy(ctx, id, candidates)
	if err != nil {
		return err
	}
	if err := r.rdb.Del(ctx, append(owned, profileKey(id))...).Err(); err != nil {
		return fmt.Errorf("profile: delete %s: %w", id, err)
	}
	return nil
}

// ownedBy filters keys down to the index entries that still resolve to id.
// Full names are not unique, so a name index may already belong to someone else.
func (r *profileRepo) ownedBy(ctx context.Context, id string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("profile: index lookup: %w", err)
	}
	out := keys[:0]
	for i, v := range vals {
		if s, ok := v.(string); ok && s == id {
			out = append(out, keys[i])
		}
	}
	return out, nil
}
