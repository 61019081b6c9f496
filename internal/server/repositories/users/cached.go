package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyFormat = "cache:user:%s"
	cacheTTL       = 10 * time.Minute
)

// RedisClient is the part of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedRepository keeps GetByID results in Redis and drops the entry on
// every write to that user. Cache failures fall through to the inner
// repository. GetByEmail is never cached.
type CachedRepository struct {
	Repository
	rdb RedisClient
}

func NewCachedRepository(inner Repository, rdb RedisClient) *CachedRepository {
	return &CachedRepository{Repository: inner, rdb: rdb}
}

// cachedUser is the Redis payload. Credentials and OTP state are never
// written to the cache; users served from it carry zero values there, and
// the auth paths read them through GetByEmail.
type cachedUser struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePic     string    `json:"profile_pic"`
	IsVerified     bool      `json:"is_verified"`
	BlockedByCount int       `json:"blocked_by_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCached(u *models.User) cachedUser {
	return cachedUser{
		ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic, IsVerified: u.IsVerified,
		BlockedByCount: u.BlockedByCount, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (c cachedUser) toModel() *models.User {
	return &models.User{
		ID: c.ID, Name: c.Name, Email: c.Email, ProfilePic: c.ProfilePic, IsVerified: c.IsVerified,
		BlockedByCount: c.BlockedByCount, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf(cacheKeyFormat, id)
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	// redis.Nil and transport errors both count as a miss
	if raw, err := r.rdb.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var cu cachedUser
		if json.Unmarshal(raw, &cu) == nil {
			return cu.toModel(), nil
		}
	}

	u, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(toCached(u)); err == nil {
		_ = r.rdb.Set(ctx, cacheKey(id), b, cacheTTL).Err()
	}
	return u, nil
}

func (r *CachedRepository) invalidate(ctx context.Context, id string) {
	_ = r.rdb.Del(ctx, cacheKey(id)).Err()
}

func (r *CachedRepository) SetOTP(ctx context.Context, id, otp string, expiry time.Time) error {
	defer r.invalidate(ctx, id)
	return r.Repository.SetOTP(ctx, id, otp, expiry)
}

func (r *CachedRepository) MarkVerified(ctx context.Context, id string) error {
	defer r.invalidate(ctx, id)
	return r.Repository.MarkVerified(ctx, id)
}

func (r *CachedRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	defer r.invalidate(ctx, id)
	return r.Repository.UpdatePassword(ctx, id, passwordHash)
}

func (r *CachedRepository) UpdateProfilePic(ctx context.Context, id, profilePic string) error {
	defer r.invalidate(ctx, id)
	return r.Repository.UpdateProfilePic(ctx, id, profilePic)
}

func (r *CachedRepository) ClaimResendSlot(ctx context.Context, id string, now time.Time, window time.Duration, limit int) (bool, error) {
	defer r.invalidate(ctx, id)
	return r.Repository.ClaimResendSlot(ctx, id, now, window, limit)
}
