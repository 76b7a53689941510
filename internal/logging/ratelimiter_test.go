package logging_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrecordio/tfrecord/internal/logging"
)

func TestRateLimiter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rl, err := logging.NewRateLimiter(2, time.Minute)
		require.NoError(t, err)

		assert.True(t, rl.Allow("message 1"))
		assert.True(t, rl.Allow("message 2"))

		time.Sleep(30 * time.Second)
		assert.False(t, rl.Allow("message 1"))
		assert.False(t, rl.Allow("message 2"))

		time.Sleep(31 * time.Second)
		assert.True(t, rl.Allow("message 1"))
		assert.True(t, rl.Allow("message 2"))
	})
}

func TestRateLimiterNil(t *testing.T) {
	var rl *logging.RateLimiter
	assert.True(t, rl.Allow("test"))
}
