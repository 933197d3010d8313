package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/techsearch/internal/db"
)

// Get returns the value stored at key, or db.ErrKeyNotFound. With a local
// TTL configured the read is served from the client-side cache when possible.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	get := s.client.B().Get().Key(key)

	var res rueidis.RedisResult
	if s.localTTL > 0 {
		res = s.client.DoCache(ctx, get.Cache(), s.localTTL)
	} else {
		res = s.client.Do(ctx, get.Build())
	}

	data, err := res.AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores value at key. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
