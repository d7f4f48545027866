package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestService_SetThenGet(t *testing.T) {
	svc := NewService(time.Minute, arbor.NewLogger())

	svc.Set("tags", []string{"go"})
	got, ok := svc.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"go"}, got)

	_, ok = svc.Get("missing")
	assert.False(t, ok)
}

func TestService_ExpiresAtTTL(t *testing.T) {
	clock := newFakeClock()
	svc := NewService(300*time.Second, arbor.NewLogger(), WithClock(clock.Now))

	svc.Set("export", "payload")

	clock.Advance(299 * time.Second)
	_, ok := svc.Get("export")
	assert.True(t, ok, "entry should be visible before the TTL elapses")

	clock.Advance(time.Second)
	_, ok = svc.Get("export")
	assert.False(t, ok, "entry should be invisible once age equals the TTL")
	assert.Equal(t, 0, svc.Len(), "expired entry should be dropped on read")
}

func TestService_SetResetsAge(t *testing.T) {
	clock := newFakeClock()
	svc := NewService(10*time.Second, arbor.NewLogger(), WithClock(clock.Now))

	svc.Set("k", 1)
	clock.Advance(8 * time.Second)
	svc.Set("k", 2)
	clock.Advance(8 * time.Second)

	got, ok := svc.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestService_EvictsLeastRecentlyUsed(t *testing.T) {
	svc := NewService(time.Minute, arbor.NewLogger(), WithMaxEntries(2))

	svc.Set("a", 1)
	svc.Set("b", 2)
	_, _ = svc.Get("a")
	svc.Set("c", 3)

	_, ok := svc.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = svc.Get("a")
	assert.True(t, ok)
	_, ok = svc.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, svc.Len())
}

func TestService_Delete(t *testing.T) {
	svc := NewService(0, nil)
	assert.Equal(t, DefaultTTL, svc.ttl)
	assert.NotNil(t, svc.logger)

	svc.Set("a", 1)
	svc.Set("b", 2)
	svc.Delete("a")
	svc.Delete("missing")
	_, ok := svc.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, svc.Len())
}

func TestService_DeletePrefix(t *testing.T) {
	svc := NewService(time.Minute, nil)

	svc.Set("books:title=Deep Work", 1)
	svc.Set("books:title=Antifragile", 2)
	svc.Set("export", 3)

	assert.Equal(t, 2, svc.DeletePrefix("books:title="))
	assert.Equal(t, 1, svc.Len())
	_, ok := svc.Get("export")
	assert.True(t, ok)

	// the LRU order stays consistent after removal
	svc.Set("tags", 4)
	assert.Equal(t, 2, svc.Len())
	assert.Equal(t, 0, svc.DeletePrefix("books:title="))
}

func TestService_ConcurrentAccess(t *testing.T) {
	svc := NewService(time.Minute, nil, WithMaxEntries(16))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n+j)%32)
				svc.Set(key, j)
				_, _ = svc.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, svc.Len(), 16)
}
