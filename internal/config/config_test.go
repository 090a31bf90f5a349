package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXAM_JOIN_WINDOW_MINUTES", "")
	t.Setenv("APP_ENV", "")

	cfg := Load()

	assert.Equal(t, 20*time.Minute, cfg.JoinWindow)
	assert.True(t, cfg.IsDevelopment())
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXAM_JOIN_WINDOW_MINUTES", "30")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.JoinWindow)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LOGIN_RATE_LIMIT", "many")
	assert.Equal(t, 30, getEnvInt("LOGIN_RATE_LIMIT", 30))

	t.Setenv("LOGIN_RATE_LIMIT", "-4")
	assert.Equal(t, 30, getEnvInt("LOGIN_RATE_LIMIT", 30))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "session:7", CacheKey.UserSessionKey(7))
	assert.Equal(t, "notify:user:3", CacheKey.UserNotifyChannel(3))
	assert.Equal(t, "exam:abc:paper", CacheKey.ExamPaperKey("abc"))
}
