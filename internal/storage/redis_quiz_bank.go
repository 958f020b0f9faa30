package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallvik/quizrelay/internal/game"
)

// redisCache is the slice of *redis.Client this package actually uses,
// factored out so tests can exercise RedisQuizBank against a fake
// instead of a live Redis server.
type redisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
}

// RedisQuizBank caches assembled Quiz snapshots in Redis in front of a
// backing QuizBank, keyed by quiz id. Repeated room creation against the
// same quiz id skips re-reading and re-joining the question rows.
type RedisQuizBank struct {
	cache   redisCache
	backing QuizBank
	ttl     time.Duration
}

// NewRedisQuizBank wraps backing with a Redis read cache. client
// satisfies redisCache, so production callers pass a *redis.Client.
func NewRedisQuizBank(client redisCache, backing QuizBank, ttl time.Duration) *RedisQuizBank {
	return &RedisQuizBank{cache: client, backing: backing, ttl: ttl}
}

func (b *RedisQuizBank) GetQuiz(ctx context.Context, quizID string) (game.Quiz, error) {
	key := cacheKey(quizID)

	if raw, err := b.cache.Get(ctx, key).Result(); err == nil {
		var cached game.Quiz
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return cached, nil
		}
	}

	quiz, err := b.backing.GetQuiz(ctx, quizID)
	if err != nil {
		return game.Quiz{}, err
	}

	if data, err := json.Marshal(quiz); err == nil {
		_ = b.cache.Set(ctx, key, data, b.ttl)
	}
	return quiz, nil
}

func cacheKey(quizID string) string {
	return "quiz:" + quizID
}
