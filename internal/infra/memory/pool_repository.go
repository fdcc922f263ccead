package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-chat-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// PoolLoader fetches a course's question pool from a backing store (database, legacy API).
type PoolLoader interface {
	LoadPool(ctx context.Context, courseID string) ([]domain.Question, error)
}

// PoolRepository caches question pools with TTL to avoid repeated loader hits.
type PoolRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewPoolRepository(loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

// GetPool returns a copy of the cached pool so callers can never mutate the cache.
func (r *PoolRepository) GetPool(ctx context.Context, courseID string) ([]domain.Question, error) {
	if pool, ok := r.lookup(courseID); ok {
		return clonePool(pool), nil
	}

	result, err, _ := r.sf.Do(courseID, func() (interface{}, error) {
		if pool, ok := r.lookup(courseID); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, domain.ErrCourseNotFound
		}

		r.mu.Lock()
		r.cache[courseID] = cachedPool{
			questions: pool,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePool(result.([]domain.Question)), nil
}

// Invalidate drops a course from the cache.
func (r *PoolRepository) Invalidate(courseID string) {
	r.mu.Lock()
	delete(r.cache, courseID)
	r.mu.Unlock()
}

func (r *PoolRepository) lookup(courseID string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[courseID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticPoolLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticPoolLoader struct {
	pools map[string][]domain.Question
}

func NewStaticPoolLoader(pools map[string][]domain.Question) *StaticPoolLoader {
	return &StaticPoolLoader{pools: pools}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context, courseID string) ([]domain.Question, error) {
	if pool, ok := l.pools[courseID]; ok {
		return pool, nil
	}
	return nil, domain.ErrCourseNotFound
}

func clonePool(pool []domain.Question) []domain.Question {
	out := make([]domain.Question, len(pool))
	for i, q := range pool {
		q.Options = append([]domain.Option(nil), q.Options...)
		out[i] = q
	}
	return out
}
