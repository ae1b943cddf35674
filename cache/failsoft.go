package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FailSoft wraps a Store so cache failures never reach the caller:
// failed reads degrade to a miss or an empty result, failed writes to a
// no-op, each with a warn log. Ping and Close pass through untouched so
// health checks stay honest.
//
// Components hold the cache behind FailSoft everywhere, which keeps a
// cache outage a performance problem instead of a correctness problem.
type FailSoft struct {
	inner  Store
	logger *slog.Logger
}

var _ Store = (*FailSoft)(nil)

// NewFailSoft wraps inner in fail-soft behavior. A nil logger falls
// back to slog.Default().
func NewFailSoft(inner Store, logger *slog.Logger) *FailSoft {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailSoft{
		inner:  inner,
		logger: logger.With("component", "cache"),
	}
}

func (f *FailSoft) warn(op, key string, err error) {
	f.logger.Warn("cache operation failed", "op", op, "key", key, "error", err)
}

func (f *FailSoft) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := f.inner.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			f.warn("get", key, err)
		}
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (f *FailSoft) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.inner.Set(ctx, key, value, ttl); err != nil {
		f.warn("set", key, err)
	}
	return nil
}

func (f *FailSoft) Delete(ctx context.Context, keys ...string) error {
	if err := f.inner.Delete(ctx, keys...); err != nil {
		f.warn("delete", "", err)
	}
	return nil
}

func (f *FailSoft) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	count, err := f.inner.DeletePrefix(ctx, prefix)
	if err != nil {
		f.warn("delete-prefix", prefix, err)
		return 0, nil
	}
	return count, nil
}

func (f *FailSoft) HSet(ctx context.Context, key, field string, value []byte) error {
	if err := f.inner.HSet(ctx, key, field, value); err != nil {
		f.warn("hset", key, err)
	}
	return nil
}

func (f *FailSoft) HGet(ctx context.Context, key, field string) ([]byte, error) {
	value, err := f.inner.HGet(ctx, key, field)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			f.warn("hget", key, err)
		}
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (f *FailSoft) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	fields, err := f.inner.HGetAll(ctx, key)
	if err != nil {
		f.warn("hgetall", key, err)
		return nil, nil
	}
	return fields, nil
}

func (f *FailSoft) HDel(ctx context.Context, key string, fields ...string) error {
	if err := f.inner.HDel(ctx, key, fields...); err != nil {
		f.warn("hdel", key, err)
	}
	return nil
}

func (f *FailSoft) SAdd(ctx context.Context, key string, members ...string) error {
	if err := f.inner.SAdd(ctx, key, members...); err != nil {
		f.warn("sadd", key, err)
	}
	return nil
}

func (f *FailSoft) SRem(ctx context.Context, key string, members ...string) error {
	if err := f.inner.SRem(ctx, key, members...); err != nil {
		f.warn("srem", key, err)
	}
	return nil
}

func (f *FailSoft) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := f.inner.SMembers(ctx, key)
	if err != nil {
		f.warn("smembers", key, err)
		return nil, nil
	}
	return members, nil
}

func (f *FailSoft) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := f.inner.SIsMember(ctx, key, member)
	if err != nil {
		f.warn("sismember", key, err)
		return false, nil
	}
	return ok, nil
}

func (f *FailSoft) LPush(ctx context.Context, key string, values ...string) error {
	if err := f.inner.LPush(ctx, key, values...); err != nil {
		f.warn("lpush", key, err)
	}
	return nil
}

func (f *FailSoft) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := f.inner.LRange(ctx, key, start, stop)
	if err != nil {
		f.warn("lrange", key, err)
		return nil, nil
	}
	return values, nil
}

func (f *FailSoft) LLen(ctx context.Context, key string) (int64, error) {
	length, err := f.inner.LLen(ctx, key)
	if err != nil {
		f.warn("llen", key, err)
		return 0, nil
	}
	return length, nil
}

func (f *FailSoft) LTrim(ctx context.Context, key string, start, stop int64) error {
	if err := f.inner.LTrim(ctx, key, start, stop); err != nil {
		f.warn("ltrim", key, err)
	}
	return nil
}

func (f *FailSoft) Ping(ctx context.Context) error {
	return f.inner.Ping(ctx)
}

func (f *FailSoft) Close() error {
	return f.inner.Close()
}
