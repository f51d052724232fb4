package collector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

var (
	// ErrSourceFetch marks a single news source that could not be fetched or parsed.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrBatchDegraded is returned when every news source failed.
	ErrBatchDegraded = errors.New("all news sources failed")
)

// BatchSize is how many headlines one collection yields.
const BatchSize = 4

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// NewsSource is a single headline feed.
type NewsSource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.NewsItem, error)
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewsCollector implements data.NewsCollector by fanning out to every source at once.
type NewsCollector struct {
	sources []NewsSource
	logger  Logger
	now     func() time.Time

	mu       sync.Mutex
	shuffler Shuffler
}

func NewNewsCollector(sources []NewsSource, shuffler Shuffler, logger Logger) *NewsCollector {
	if shuffler == nil {
		shuffler = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &NewsCollector{
		sources:  sources,
		logger:   logger,
		now:      time.Now,
		shuffler: shuffler,
	}
}

// Collect implements data.NewsCollector. A failing source contributes nothing; only a
// batch where every source failed is an error.
func (c *NewsCollector) Collect(ctx context.Context) ([]models.NewsItem, error) {
	sources := append([]NewsSource(nil), c.sources...)
	c.shuffle(len(sources), func(i, j int) { sources[i], sources[j] = sources[j], sources[i] })

	results := make([][]models.NewsItem, len(sources))
	failed := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			items, err := src.Fetch(gctx)
			if err != nil {
				failed[i] = true
				c.logger.Error("failed to fetch news", "source", src.Name(), "error", fmt.Errorf("%w: %w", ErrSourceFetch, err))
				return nil
			}
			results[i] = items
			c.logger.Info("fetched news", "source", src.Name(), "items", len(items))
			return nil
		})
	}
	_ = g.Wait()

	var pooled []models.NewsItem
	succeeded := 0
	for i, items := range results {
		if !failed[i] {
			succeeded++
		}
		pooled = append(pooled, items...)
	}

	if succeeded == 0 {
		return nil, ErrBatchDegraded
	}

	now := c.now()
	for i := range pooled {
		pooled[i].ID = newsID(pooled[i].Source, now)
	}

	c.shuffle(len(pooled), func(i, j int) { pooled[i], pooled[j] = pooled[j], pooled[i] })
	sort.SliceStable(pooled, func(i, j int) bool {
		return pooled[i].PublishedAt.After(pooled[j].PublishedAt)
	})

	if len(pooled) > BatchSize {
		pooled = pooled[:BatchSize]
	}
	return pooled, nil
}

func (c *NewsCollector) shuffle(n int, swap func(i, j int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffler.Shuffle(n, swap)
}

func newsID(source string, now time.Time) string {
	slug := strings.ToLower(strings.Join(strings.Fields(source), "-"))
	return fmt.Sprintf("%s-%d-%s", slug, now.UnixNano(), uuid.NewString()[:8])
}
