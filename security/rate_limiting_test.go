package security

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_FirstRequestStartsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectIncr("gate:rl:principal:alice").SetVal(1)
	mock.ExpectExpire("gate:rl:principal:alice", time.Minute).SetVal(true)

	store := &redisStore{redis: db, limit: 60, window: time.Minute}

	allowed, err := store.Allow("principal:alice")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DeniesOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectIncr("gate:rl:principal:alice").SetVal(61)

	store := &redisStore{redis: db, limit: 60, window: time.Minute}

	allowed, err := store.Allow("principal:alice")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FailsOpenWhenRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectIncr("gate:rl:principal:alice").SetErr(assert.AnError)

	store := &redisStore{redis: db, limit: 60, window: time.Minute}

	allowed, err := store.Allow("principal:alice")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	r := NewRateLimiter(nil, 0, 0)

	assert.Equal(t, int64(60), r.limit)
	assert.Equal(t, time.Minute, r.window)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	r := NewRateLimiter(nil, 60, time.Minute)

	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (X11; Linux x86_64)", false},
		{"Googlebot/2.1", true},
		{"my-crawler/1.0", true},
		{"SpiderMonkey", true},
		{"scraper-9000", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.isSuspiciousUserAgent(tt.ua), tt.ua)
	}
}
