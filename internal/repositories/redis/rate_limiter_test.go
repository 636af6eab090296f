package redis_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/minimart/minimart/internal/repositories/redis"
)

const testWindow = 15 * time.Minute

func setup(t *testing.T, maxAttempts int64) (*redisrepo.RateLimiter, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	limiter := redisrepo.NewWithClient(client, maxAttempts, testWindow)

	return limiter, mock
}

// anyArgs skips argument matching for commands whose arguments carry
// time.Now-derived scores.
func anyArgs(expected, actual []interface{}) error { return nil }

func expectAttempt(mock redismock.ClientMock, key string, count int64) {
	mock.CustomMatch(anyArgs).ExpectZRemRangeByScore(key, "0", "0").SetVal(0)
	mock.CustomMatch(anyArgs).ExpectZAdd(key, goredis.Z{}).SetVal(1)
	mock.ExpectZCard(key).SetVal(count)
	mock.ExpectExpire(key, testWindow).SetVal(true)
}

func TestCheckLoginRateLimit(t *testing.T) {
	ctx := t.Context()
	key := "login_attempts:alice"

	t.Run("Allowed Under Limit", func(t *testing.T) {
		// Arrange
		limiter, mock := setup(t, 5)

		expectAttempt(mock, key, 1)

		// Act
		allowed, remaining, retryAfter, err := limiter.CheckLoginRateLimit(ctx, "alice")

		// Assert
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(4), remaining)
		assert.Equal(t, 0, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Blocked At Limit", func(t *testing.T) {
		// Arrange
		limiter, mock := setup(t, 5)

		expectAttempt(mock, key, 5)
		mock.ExpectZRange(key, 0, 0).SetVal([]string{strconv.FormatInt(time.Now().Unix(), 10)})

		// Act
		allowed, remaining, retryAfter, err := limiter.CheckLoginRateLimit(ctx, "alice")

		// Assert
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, int64(0), remaining)
		// The oldest attempt just happened, so the wait spans the window.
		assert.InDelta(t, int(testWindow.Seconds()), retryAfter, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Blocked With Expired Oldest Attempt", func(t *testing.T) {
		// Arrange
		limiter, mock := setup(t, 5)

		expectAttempt(mock, key, 6)
		// Oldest attempt far in the past: the wait clamps to zero rather
		// than going negative.
		mock.ExpectZRange(key, 0, 0).SetVal([]string{"0"})

		// Act
		allowed, _, retryAfter, err := limiter.CheckLoginRateLimit(ctx, "alice")

		// Assert
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 0, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redis Failure", func(t *testing.T) {
		// Arrange
		limiter, mock := setup(t, 5)

		mock.CustomMatch(anyArgs).ExpectZRemRangeByScore(key, "0", "0").SetErr(assert.AnError)

		// Act
		allowed, _, _, err := limiter.CheckLoginRateLimit(ctx, "alice")

		// Assert
		require.Error(t, err)
		assert.False(t, allowed)
	})
}
