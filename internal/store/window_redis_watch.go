package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/sliding-window/internal/window"
)

// ErrWatchConflict is returned when every optimistic attempt lost the race.
var ErrWatchConflict = errors.New("sliding window key kept changing during transaction")

// DefaultWatchRetries is used when NewRedisWatchWindowStore gets a
// non-positive retry count.
const DefaultWatchRetries = 5

// RedisWatchWindowStore implements window.Store with WATCH/MULTI/EXEC instead
// of a server-side script. Nothing is committed unless the watched key is
// unchanged since the count was read.
type RedisWatchWindowStore struct {
	client     redis.UniversalClient
	maxRetries int
}

// NewRedisWatchWindowStore creates an optimistic Redis sliding window store.
func NewRedisWatchWindowStore(client redis.UniversalClient, maxRetries int) *RedisWatchWindowStore {
	if maxRetries <= 0 {
		maxRetries = DefaultWatchRetries
	}

	return &RedisWatchWindowStore{
		client:     client,
		maxRetries: maxRetries,
	}
}

func (r *RedisWatchWindowStore) Apply(ctx context.Context, req window.Request) (window.Result, error) {
	var res window.Result

	floor := strconv.FormatInt(req.Floor(), 10)
	member := strconv.FormatInt(req.Member, 10)

	txf := func(tx *redis.Tx) error {
		// Entries that survive the purge; the new member is always distinct.
		surviving, err := tx.ZCount(ctx, req.Key, "("+floor, "+inf").Result()
		if err != nil {
			return err
		}

		count := surviving + 1
		exceeded := req.Exceeds(count)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRemRangeByScore(ctx, req.Key, "-inf", floor)
			pipe.ZAdd(ctx, req.Key, redis.Z{Score: float64(req.Now), Member: member})
			pipe.Expire(ctx, req.Key, time.Duration(req.ExpireSeconds)*time.Second)

			if exceeded && req.Mode == window.ModeEvaluateAndCleanup {
				pipe.Del(ctx, req.Key)
			}

			return nil
		})
		if err != nil {
			return err
		}

		res = window.Result{Count: count, Exceeded: exceeded}

		return nil
	}

	for range r.maxRetries {
		err := r.client.Watch(ctx, txf, req.Key)
		if err == nil {
			return res, nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return window.Result{}, err
	}

	return window.Result{}, fmt.Errorf("%w: %d attempts", ErrWatchConflict, r.maxRetries)
}

// Compile-time check.
var _ window.Store = (*RedisWatchWindowStore)(nil)
