package lease

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runClaimerContract(t *testing.T, c Claimer, key string) {
	t.Helper()
	ctx := context.Background()

	release, err := c.Claim(ctx, key)
	require.NoError(t, err)

	_, err = c.Claim(ctx, key)
	assert.True(t, errors.Is(err, ErrHeld), "second claim should fail with ErrHeld, got %v", err)

	other, err := c.Claim(ctx, key+"-other")
	require.NoError(t, err, "different key must not conflict")
	other()

	release()
	release() // 幂等

	again, err := c.Claim(ctx, key)
	require.NoError(t, err, "claim after release")
	again()
}

func TestMemoryClaimer_Contract(t *testing.T) {
	runClaimerContract(t, NewMemoryClaimer(), "report.pdf")
}

func TestMemoryClaimer_ConcurrentSingleWinner(t *testing.T) {
	c := NewMemoryClaimer()
	var wins int32
	var wg sync.WaitGroup
	releases := make(chan func(), 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rel, err := c.Claim(context.Background(), "same.pdf"); err == nil {
				atomic.AddInt32(&wins, 1)
				releases <- rel
			}
		}()
	}
	wg.Wait()
	close(releases)
	assert.Equal(t, int32(1), wins)
	for rel := range releases {
		rel()
	}
}

func TestMemoryClaimer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryClaimer().Claim(ctx, "a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRedisClaimer_Contract 需要 TEST_DOCQA_REDIS_ADDR，否则跳过
func TestRedisClaimer_Contract(t *testing.T) {
	addr := os.Getenv("TEST_DOCQA_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_DOCQA_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	c := NewRedisClaimerWithClient(client, "docqa:test:", 5*time.Second)
	runClaimerContract(t, c, "report-"+time.Now().Format("150405.000")+".pdf")
}
