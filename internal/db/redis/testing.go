package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest wraps a caller-supplied client, typically a rueidis mock.
func NewStoreForTest(c rueidis.Client, localTTL time.Duration) *Store {
	return newStore(c, localTTL)
}
