package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PoolLoader fetches a course's question pool from a backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context, courseID string) ([]domain.Question, error)
}

// PoolRepository caches question pools in Redis as one JSON document per course
// and falls back to a loader on cache miss.
//
//	SET pool:{courseID} <json> EX ttl
type PoolRepository struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewPoolRepository(client *redis.Client, loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) GetPool(ctx context.Context, courseID string) ([]domain.Question, error) {
	if pool, ok := r.cached(ctx, courseID); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(courseID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(ctx, courseID); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, domain.ErrCourseNotFound
		}

		data, err := json.Marshal(pool)
		if err != nil {
			return nil, fmt.Errorf("marshal pool: %w", err)
		}
		// best-effort fill; a failed write only costs another load
		_ = r.client.Set(ctx, r.key(courseID), data, r.ttlWithJitter()).Err()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	// decode a fresh copy for every caller sharing the flight
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal pool: %w", err)
	}
	var pool []domain.Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return pool, nil
}

// Invalidate drops the cached pool of a course.
func (r *PoolRepository) Invalidate(ctx context.Context, courseID string) error {
	return r.client.Del(ctx, r.key(courseID)).Err()
}

func (r *PoolRepository) cached(ctx context.Context, courseID string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key(courseID)).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

func (r *PoolRepository) key(courseID string) string {
	return "pool:" + courseID
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
