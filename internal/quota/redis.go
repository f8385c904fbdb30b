package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "quota:ai:daily:"
	redisDateLayout = "2006-01-02"
	redisKeyTTL     = 48 * time.Hour
)

// incrementScript mirrors the Postgres upsert. ISO dates compare correctly
// as strings.
var incrementScript = redis.NewScript(`
local date = redis.call('HGET', KEYS[1], 'date')
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if (not date) or date < ARGV[1] then
	count = 0
end
if count >= tonumber(ARGV[2]) then
	return -1
end
count = count + 1
redis.call('HSET', KEYS[1], 'count', count, 'date', ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return count
`)

// RedisStore keeps counters in one hash per user.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (State, bool, error) {
	vals, err := s.rdb.HMGet(ctx, redisKeyPrefix+userID, "count", "date").Result()
	if err != nil {
		return State{}, false, fmt.Errorf("fetching user quota: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return State{}, false, nil
	}

	count, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return State{}, false, fmt.Errorf("parsing quota count: %w", err)
	}
	date, err := time.Parse(redisDateLayout, fmt.Sprint(vals[1]))
	if err != nil {
		return State{}, false, fmt.Errorf("parsing quota date: %w", err)
	}
	return State{Count: count, LastResetDate: date}, true, nil
}

func (s *RedisStore) Increment(ctx context.Context, userID string, today time.Time, limit int) (int, bool, error) {
	res, err := incrementScript.Run(ctx, s.rdb,
		[]string{redisKeyPrefix + userID},
		today.Format(redisDateLayout), limit, int(redisKeyTTL.Seconds()),
	).Int()
	if err != nil {
		return 0, false, fmt.Errorf("incrementing user quota: %w", err)
	}
	if res < 0 {
		return 0, false, nil
	}
	return res, true, nil
}
