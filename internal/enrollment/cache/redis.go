// Package cache holds per-student enrollment lists in Redis. Entries are
// invalidated by the service after every committed mutation, and expire
// after a TTL as a backstop.
//
// Each student has a generation counter next to the list. Invalidation
// increments it and deletes the list in one MULTI; a fill only lands if the
// generation still matches the value read before the store was queried.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"campus/internal/enrollment/models"
)

const keyPrefix = "campus:student-enrollments:"

// generationTTL outlives any list entry. Every invalidation refreshes it.
const generationTTL = 24 * time.Hour

// setIfGeneration stores ARGV[2] at KEYS[1] with a PX of ARGV[3] when the
// generation at KEYS[2] (missing reads as 0) equals ARGV[1].
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache implements the enrollment service's StudentCache.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func New(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Both keys share a hash tag so the script and the MULTI stay on one slot.
func key(studentID int64) string {
	return keyPrefix + "{" + strconv.FormatInt(studentID, 10) + "}"
}

func generationKey(studentID int64) string {
	return key(studentID) + ":gen"
}

// StudentEnrollments returns the cached list and whether it was present.
func (c *RedisCache) StudentEnrollments(ctx context.Context, studentID int64) ([]*models.Enrollment, bool, error) {
	raw, err := c.client.Get(ctx, key(studentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached enrollments: %w", err)
	}
	var list []*models.Enrollment
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, fmt.Errorf("decode cached enrollments: %w", err)
	}
	return list, true, nil
}

// Generation returns the student's invalidation count, 0 if never invalidated.
func (c *RedisCache) Generation(ctx context.Context, studentID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(studentID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get cache generation: %w", err)
	}
	return gen, nil
}

// SetStudentEnrollments stores list if the student's generation still equals
// generation. It reports whether the list was stored.
func (c *RedisCache) SetStudentEnrollments(ctx context.Context, studentID int64, generation int64, list []*models.Enrollment) (bool, error) {
	raw, err := json.Marshal(list)
	if err != nil {
		return false, fmt.Errorf("encode enrollments: %w", err)
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{key(studentID), generationKey(studentID)},
		strconv.FormatInt(generation, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("set cached enrollments: %w", err)
	}
	return stored == 1, nil
}

// InvalidateStudent drops the cached list and advances the generation so
// fills that started earlier are rejected.
func (c *RedisCache) InvalidateStudent(ctx context.Context, studentID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(studentID))
		pipe.Expire(ctx, generationKey(studentID), generationTTL)
		pipe.Del(ctx, key(studentID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached enrollments: %w", err)
	}
	return nil
}
