package badgercache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/core"
)

// Key namespaces. Each cache structure lives under its own prefix so a
// plain value, a hash field, a set member and a list body can never
// collide on the same user key.
const (
	valuePrefix = "k"
	hashPrefix  = "h"
	setPrefix   = "s"
	listPrefix  = "l"
)

func valueKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", valuePrefix, key))
}

func hashFieldKey(key, field string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", hashPrefix, key, field))
}

func hashKeyPrefix(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", hashPrefix, key))
}

func setMemberKey(key, member string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", setPrefix, key, member))
}

func setKeyPrefix(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", setPrefix, key))
}

func listKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", listPrefix, key))
}

// Store implements cache.Store on a dedicated BadgerDB instance, kept
// separate from the document store so cache churn never competes with
// record compactions. Entry TTLs come from Badger directly; hashes and
// sets are prefix-encoded keys; lists are a single serialized value
// mutated inside one transaction.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ cache.Store = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a cache store at the specified path.
// Creates the directory if it doesn't exist.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badgercache")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return value, nil
}

// Set stores value under key. A positive ttl turns into a Badger entry
// TTL; expired entries surface as misses.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(valueKey(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(valueKey(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// DeletePrefix removes every plain value whose key starts with prefix
// and returns how many were removed.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		// Collect keys first, then delete: mutating while iterating
		// confuses the iterator.
		scan := []byte(fmt.Sprintf("%s:%s", valuePrefix, prefix))
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = scan

		var keys [][]byte
		iter := txn.NewIterator(iterOpts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache delete prefix: %w", err)
	}
	return count, nil
}

// HSet stores a field in the hash at key.
func (s *Store) HSet(ctx context.Context, key, field string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(hashFieldKey(key, field), value)
	})
	if err != nil {
		return fmt.Errorf("cache hset: %w", err)
	}
	return nil
}

// HGet retrieves a field from the hash at key.
func (s *Store) HGet(ctx context.Context, key, field string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashFieldKey(key, field))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache hget: %w", err)
	}
	return value, nil
}

// HGetAll retrieves every field of the hash at key.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	fields := make(map[string][]byte)
	prefix := hashKeyPrefix(key)

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix

		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			field := strings.TrimPrefix(string(item.Key()), string(prefix))
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			fields[field] = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache hgetall: %w", err)
	}
	return fields, nil
}

// HDel removes fields from the hash at key. Missing fields are ignored.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, field := range fields {
			if err := txn.Delete(hashFieldKey(key, field)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache hdel: %w", err)
	}
	return nil
}

// SAdd adds members to the set at key.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, member := range members {
			if err := txn.Set(setMemberKey(key, member), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache sadd: %w", err)
	}
	return nil
}

// SRem removes members from the set at key. Missing members are ignored.
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, member := range members {
			if err := txn.Delete(setMemberKey(key, member)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache srem: %w", err)
	}
	return nil
}

// SMembers returns every member of the set at key.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	prefix := setKeyPrefix(key)

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = prefix

		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			member := strings.TrimPrefix(string(iter.Item().Key()), string(prefix))
			members = append(members, member)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache smembers: %w", err)
	}
	return members, nil
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(setMemberKey(key, member))
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("cache sismember: %w", err)
	}
	return true, nil
}

// LPush prepends values to the list at key: values[0] becomes the new
// head. The whole list is rewritten inside one transaction.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readList(txn, key)
		if err != nil {
			return err
		}
		updated := make([]string, 0, len(values)+len(current))
		updated = append(updated, values...)
		updated = append(updated, current...)
		return txn.Set(listKey(key), marshalList(updated))
	})
	if err != nil {
		return fmt.Errorf("cache lpush: %w", err)
	}
	return nil
}

// LRange returns list elements between start and stop inclusive.
// Negative indices count back from the end.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	var values []string
	err := s.db.View(func(txn *badger.Txn) error {
		list, err := readList(txn, key)
		if err != nil {
			return err
		}
		lo, hi, ok := rangeBounds(start, stop, int64(len(list)))
		if !ok {
			return nil
		}
		values = append(values, list[lo:hi+1]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache lrange: %w", err)
	}
	return values, nil
}

// LLen returns the length of the list at key.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	var length int64
	err := s.db.View(func(txn *badger.Txn) error {
		list, err := readList(txn, key)
		if err != nil {
			return err
		}
		length = int64(len(list))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache llen: %w", err)
	}
	return length, nil
}

// LTrim keeps only list elements between start and stop inclusive. An
// empty result removes the list.
func (s *Store) LTrim(ctx context.Context, key string, start, stop int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		list, err := readList(txn, key)
		if err != nil {
			return err
		}
		lo, hi, ok := rangeBounds(start, stop, int64(len(list)))
		if !ok {
			return txn.Delete(listKey(key))
		}
		return txn.Set(listKey(key), marshalList(list[lo:hi+1]))
	})
	if err != nil {
		return fmt.Errorf("cache ltrim: %w", err)
	}
	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return cache.ErrStoreClosed
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// readList loads and decodes the list at key within txn.
// Returns an empty list if the key doesn't exist.
func readList(txn *badger.Txn, key string) ([]string, error) {
	item, err := txn.Get(listKey(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var list []string
	err = item.Value(func(val []byte) error {
		decoded, _, err := core.StringSliceMUS.Unmarshal(val)
		if err != nil {
			return err
		}
		list = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func marshalList(values []string) []byte {
	buf := make([]byte, core.StringSliceMUS.Size(values))
	core.StringSliceMUS.Marshal(values, buf)
	return buf
}

// rangeBounds resolves inclusive list indices against a list of length
// n. Negative indices count back from the end. The third return is
// false when the resolved range is empty.
func rangeBounds(start, stop, n int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
