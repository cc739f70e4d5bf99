package database

import (
	"context"
	"time"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/pkg/logger"
	"gorm.io/gorm"
)

// Cache is the slice of RedisCache the user lookups need.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type UserRepo struct {
	db    *gorm.DB
	cache Cache
	ttl   time.Duration
}

// NewUserRepo builds a repo; cache may be nil.
func NewUserRepo(db *gorm.DB, cache Cache, ttl time.Duration) *UserRepo {
	return &UserRepo{db: db, cache: cache, ttl: ttl}
}

func identityKey(id string) string {
	return "identity:" + id
}

func (r *UserRepo) Get(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, classify(err, "User not found")
}

// Identity resolves one user, falling back to the unknown placeholder when
// the profile does not exist.
func (r *UserRepo) Identity(ctx context.Context, id string) (models.Identity, error) {
	found, err := r.Resolve(ctx, []string{id})
	if err != nil {
		return models.Identity{}, err
	}
	if ident, ok := found[id]; ok {
		return ident, nil
	}
	return models.UnknownIdentity(id), nil
}

// Resolve looks up display identities in one batch. Ids without a profile
// are absent from the result.
func (r *UserRepo) Resolve(ctx context.Context, ids []string) (map[string]models.Identity, error) {
	out := make(map[string]models.Identity, len(ids))
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if r.cache != nil {
			var ident models.Identity
			if err := r.cache.Get(ctx, identityKey(id), &ident); err == nil {
				out[id] = ident
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", missing).Find(&users).Error; err != nil {
		return nil, classify(err, "Failed to resolve users")
	}
	for _, u := range users {
		ident := u.Identity()
		out[u.ID] = ident
		if r.cache != nil {
			if err := r.cache.Set(ctx, identityKey(u.ID), ident, r.ttl); err != nil {
				logger.Debug().Err(err).Str("user_id", u.ID).Msg("Identity cache write failed")
			}
		}
	}
	return out, nil
}
