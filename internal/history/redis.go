package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "session:"
	maxCASAttempts = 50
)

var ErrContention = errors.New("session key contended")

var _ Store = (*RedisStore)(nil)

// RedisStore keeps threads as JSON values with a TTL. Append is an optimistic
// WATCH/MULTI/EXEC transaction, retried only when another writer touched the
// key in between.
type RedisStore struct {
	rdb    *redis.Client
	opts   Options
	encode func(any) ([]byte, error)
}

func NewRedisStore(rdb *redis.Client, opts Options) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts.withDefaults(), encode: json.Marshal}
}

// NewRedisClient builds a client from a redis:// URL with command retries
// disabled, so an unreachable backend fails the request right away.
func NewRedisClient(url string) (*redis.Client, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	o.MaxRetries = -1
	return redis.NewClient(o), nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (Thread, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, key, err)
	}
	var t Thread
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCorruptThread, key, err)
	}
	return t, true, nil
}

func (s *RedisStore) Append(ctx context.Context, key string, turn Turn) (Thread, error) {
	if strings.TrimSpace(turn.Text) == "" {
		return nil, ErrEmptyTurn
	}
	rkey := redisKeyPrefix + key
	var result Thread
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, rkey).Bytes()
		var thread Thread
		switch {
		case errors.Is(err, redis.Nil):
			thread = s.opts.newThread(turn)
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &thread); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrCorruptThread, key, err)
			}
			thread = append(thread, turn)
		}
		data, err := s.encode(thread)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrCorruptThread, key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rkey, data, s.opts.TTL)
			return nil
		})
		if err == nil {
			result = thread
		}
		return err
	}

	for i := 0; i < maxCASAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, rkey)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrCorruptThread) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: append %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrContention, key, maxCASAttempts)
}
