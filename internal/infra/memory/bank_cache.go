package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizbot-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankCache caches question-bank topics with a TTL to avoid repeated
// database hits while a quiz session is running.
type BankCache struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedTopic
}

type cachedTopic struct {
	items     []domain.QuizItem
	expiresAt time.Time
}

func NewBankCache(loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedTopic),
	}
}

func (c *BankCache) Topic(ctx context.Context, topic string) ([]domain.QuizItem, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[topic]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(topic, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[topic]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.items, nil
		}
		c.mu.RUnlock()

		items, err := c.loader.LoadTopic(ctx, topic)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[topic] = cachedTopic{
			items:     items,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizItem), nil
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
