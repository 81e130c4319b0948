package tally

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"classtrack/internal/attendance"
)

// Tally keeps live per-class status counts in a Redis hash per class
// and day, so the dashboard can show today's numbers without hitting
// Postgres. Counts expire on their own; Postgres stays the source of
// truth.
type Tally struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client) *Tally {
	return &Tally{rdb: rdb, ttl: 48 * time.Hour}
}

func key(classID string, day time.Time) string {
	return fmt.Sprintf("classtrack:tally:%s:%s", classID, day.Format("2006-01-02"))
}

// Incr bumps the counter for one status.
func (t *Tally) Incr(ctx context.Context, classID string, day time.Time, status attendance.Status) error {
	k := key(classID, day)
	pipe := t.rdb.TxPipeline()
	pipe.HIncrBy(ctx, k, string(status), 1)
	pipe.Expire(ctx, k, t.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Counts reads the current counters for a class and day. A missing
// hash yields an empty map.
func (t *Tally) Counts(ctx context.Context, classID string, day time.Time) (map[attendance.Status]int, error) {
	raw, err := t.rdb.HGetAll(ctx, key(classID, day)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[attendance.Status]int, len(raw))
	for field, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[attendance.Status(field)] = n
	}
	return out, nil
}
