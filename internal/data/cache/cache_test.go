package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/songzhibin97/cryptotherapist/internal/data/collector"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// scriptedCollector returns a new numbered batch per call, or fails while failing is set.
type scriptedCollector struct {
	calls   atomic.Int64
	failing atomic.Bool
}

func (s *scriptedCollector) Collect(context.Context) ([]models.NewsItem, error) {
	n := s.calls.Add(1)
	if s.failing.Load() {
		return nil, collector.ErrBatchDegraded
	}
	return []models.NewsItem{{ID: fmt.Sprintf("batch-%d", n), Title: "headline"}}, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache() (*NewsCache, *scriptedCollector, *clock) {
	src := &scriptedCollector{}
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewNewsCache(src, DefaultTTL, discard).WithClock(clk.Now), src, clk
}

func TestNewsCache_TTL(t *testing.T) {
	c, src, clk := newTestCache()
	ctx := context.Background()

	first := c.Get(ctx, false)
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), src.calls.Load())

	clk.Advance(4 * time.Minute)
	second := c.Get(ctx, false)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, int64(1), src.calls.Load())

	clk.Advance(2 * time.Minute)
	third := c.Get(ctx, false)
	assert.Equal(t, "batch-2", third[0].ID)
	assert.Equal(t, int64(2), src.calls.Load())
}

func TestNewsCache_ForcedReadIsolation(t *testing.T) {
	c, src, clk := newTestCache()
	ctx := context.Background()

	passive := c.Get(ctx, false)
	require.Equal(t, "batch-1", passive[0].ID)

	clk.Advance(time.Minute)
	forced := c.Get(ctx, true)
	assert.Equal(t, "batch-2", forced[0].ID)

	again := c.Get(ctx, false)
	assert.Same(t, &passive[0], &again[0])
	assert.Equal(t, int64(2), src.calls.Load())

	// The passive entry still expires relative to the original fetch.
	clk.Advance(4*time.Minute + time.Second)
	expired := c.Get(ctx, false)
	assert.Equal(t, "batch-3", expired[0].ID)
}

func TestNewsCache_ForcedReadOnEmptyCacheDoesNotPopulate(t *testing.T) {
	c, src, _ := newTestCache()
	ctx := context.Background()

	forced := c.Get(ctx, true)
	assert.Equal(t, "batch-1", forced[0].ID)

	passive := c.Get(ctx, false)
	assert.Equal(t, "batch-2", passive[0].ID)
	assert.Equal(t, int64(2), src.calls.Load())
}

func TestNewsCache_Degraded(t *testing.T) {
	tests := []struct {
		name      string
		prime     bool
		forced    bool
		wantIDs   []string
		wantCalls int64
	}{
		{name: "passive with nothing cached", wantIDs: []string{}, wantCalls: 1},
		{name: "passive serves stale", prime: true, wantIDs: []string{"batch-1"}, wantCalls: 2},
		{name: "forced ignores stale", prime: true, forced: true, wantIDs: []string{}, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, src, clk := newTestCache()
			ctx := context.Background()

			if tt.prime {
				c.Get(ctx, false)
				clk.Advance(10 * time.Minute)
			}
			src.failing.Store(true)

			got := c.Get(ctx, tt.forced)
			require.NotNil(t, got)

			ids := []string{}
			for _, item := range got {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantCalls, src.calls.Load())
		})
	}
}

func TestNewsCache_StaleEntryNotReplacedOnFailure(t *testing.T) {
	c, src, clk := newTestCache()
	ctx := context.Background()

	c.Get(ctx, false)
	clk.Advance(10 * time.Minute)

	src.failing.Store(true)
	c.Get(ctx, false)
	src.failing.Store(false)

	// Still expired, so the next passive read refetches.
	got := c.Get(ctx, false)
	assert.Equal(t, "batch-3", got[0].ID)
}

func TestNewsCache_Concurrent(t *testing.T) {
	c, src, clk := newTestCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				clk.Advance(time.Minute)
			}
			got := c.Get(ctx, i%3 == 0)
			assert.Len(t, got, 1)
		}(i)
	}
	wg.Wait()

	assert.Positive(t, src.calls.Load())
}

func TestNewsCache_ConcurrentPassiveMissFetchesOnce(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	blocking := collectorFunc(func(ctx context.Context) ([]models.NewsItem, error) {
		calls.Add(1)
		<-release
		return []models.NewsItem{{ID: "only"}}, nil
	})
	c := NewNewsCache(blocking, DefaultTTL, discard)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Get(context.Background(), false)
			assert.Equal(t, "only", got[0].ID)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

type collectorFunc func(ctx context.Context) ([]models.NewsItem, error)

func (f collectorFunc) Collect(ctx context.Context) ([]models.NewsItem, error) { return f(ctx) }

func TestNewsCache_DefaultTTL(t *testing.T) {
	c := NewNewsCache(collectorFunc(func(context.Context) ([]models.NewsItem, error) {
		return nil, errors.New("unused")
	}), 0, discard)
	assert.Equal(t, DefaultTTL, c.ttl)
}
