package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data    map[string]string
	getErr  error
	deleted []string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type countingRepo struct {
	Repository
	users map[string]*models.User
	gets  int
}

func (c *countingRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	c.gets++
	u, ok := c.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (c *countingRepo) UpdateProfilePic(_ context.Context, id, pic string) error {
	c.users[id].ProfilePic = pic
	return nil
}

func TestCachedRepository_GetByID_CachesAndInvalidates(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &countingRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Alice", Email: "a@x", IsVerified: true, CreatedAt: created},
	}}
	rdb := newFakeRedis()
	repo := NewCachedRepository(inner, rdb)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets, "second read served from cache")
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, second.IsVerified)
	assert.True(t, second.CreatedAt.Equal(created))

	require.NoError(t, repo.UpdateProfilePic(ctx, "u1", "pic.png"))
	assert.Contains(t, rdb.deleted, "cache:user:u1")

	third, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "pic.png", third.ProfilePic)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedRepository_CredentialsStayOutOfRedis(t *testing.T) {
	expiry := time.Date(2025, 1, 1, 0, 10, 0, 0, time.UTC)
	inner := &countingRepo{users: map[string]*models.User{
		"u1": {
			ID: "u1", Name: "Alice", Email: "a@x", IsVerified: true,
			PasswordHash: "$2a$10$hashhashhash", OTP: "123456", OTPExpiry: expiry,
			ResendOTPCount: 2, ResendOTPLast: expiry,
		},
	}}
	rdb := newFakeRedis()
	repo := NewCachedRepository(inner, rdb)
	ctx := context.Background()

	// the miss returns the full row from the inner repository
	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "123456", u.OTP)

	raw, ok := rdb.data["cache:user:u1"]
	require.True(t, ok)
	assert.NotContains(t, raw, "hashhashhash")
	assert.NotContains(t, raw, "123456")
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "otp")

	hit, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, "Alice", hit.Name)
	assert.True(t, hit.IsVerified)
	assert.Empty(t, hit.PasswordHash)
	assert.Empty(t, hit.OTP)
	assert.True(t, hit.OTPExpiry.IsZero())
}

func TestCachedRepository_FallsThroughOnCacheError(t *testing.T) {
	inner := &countingRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	repo := NewCachedRepository(inner, rdb)

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestCachedRepository_NotFoundNotCached(t *testing.T) {
	inner := &countingRepo{users: map[string]*models.User{}}
	rdb := newFakeRedis()
	repo := NewCachedRepository(inner, rdb)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, rdb.data)
}
