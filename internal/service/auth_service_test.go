package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) (*AuthService, *UserService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	users := inmem.NewDB().Users()
	auth := NewAuthService(cfg, users, rdb)
	return auth, NewUserService(users, auth, zerolog.Nop()), mr
}

func TestAuthService_LoginAndSession(t *testing.T) {
	auth, users, mr := newAuth(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &model.CreateUserRequest{Name: "Ada", Email: " Ada@School.test ", Password: "secret123", Role: model.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "ada@school.test", u.Email)

	_, err = auth.Login(ctx, "ada@school.test", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@school.test", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := auth.Login(ctx, "ada@school.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Contains(t, res.Capabilities, model.CapExamsCreate)
	assert.NotContains(t, res.Capabilities, model.CapExamsLock)

	claims, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	assert.Equal(t, Actor{ID: u.ID, Role: model.RoleTeacher}, claims.Actor())
	require.NoError(t, auth.ValidateSession(ctx, u.ID, claims.ID))

	ttl := mr.TTL(config.CacheKey.UserSessionKey(u.ID))
	assert.Equal(t, time.Hour, ttl)

	// A second login replaces the first session.
	res2, err := auth.Login(ctx, "ada@school.test", "secret123")
	require.NoError(t, err)
	claims2, err := auth.ValidateToken(res2.Token)
	require.NoError(t, err)
	assert.ErrorIs(t, auth.ValidateSession(ctx, u.ID, claims.ID), ErrSessionInvalid)
	assert.NoError(t, auth.ValidateSession(ctx, u.ID, claims2.ID))

	require.NoError(t, auth.Logout(ctx, u.ID))
	assert.ErrorIs(t, auth.ValidateSession(ctx, u.ID, claims2.ID), ErrSessionInvalid)
}

func TestAuthService_ValidateTokenRejectsForeignSignature(t *testing.T) {
	auth, _, _ := newAuth(t)
	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil, redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()}))

	token, err := other.GenerateToken(context.Background(), &model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
	_, err = auth.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestAuthService_Me(t *testing.T) {
	auth, users, _ := newAuth(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &model.CreateUserRequest{Name: "Bo", Email: "bo@school.test", Password: "secret123", Role: model.RoleStudent})
	require.NoError(t, err)

	me, err := auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", me.Name)

	_, err = auth.Me(ctx, 4242)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_CreateAndList(t *testing.T) {
	_, users, _ := newAuth(t)
	ctx := context.Background()

	_, err := users.Create(ctx, &model.CreateUserRequest{Name: "A", Email: "a@school.test", Password: "secret123", Role: model.RoleStudent})
	require.NoError(t, err)
	_, err = users.Create(ctx, &model.CreateUserRequest{Name: "B", Email: "A@school.test", Password: "secret123", Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = users.Create(ctx, &model.CreateUserRequest{Name: "C", Email: "c@school.test", Password: "secret123", Role: "janitor"})
	assert.Error(t, err)
	_, err = users.Create(ctx, &model.CreateUserRequest{Name: "T", Email: "t@school.test", Password: "secret123", Role: model.RoleTeacher})
	require.NoError(t, err)

	list, p, err := users.List(ctx, model.RoleStudent, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, p.TotalItems)

	list, _, err = users.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
