package service

import (
	"context"
	"sync"

	dErrors "listingwatch/pkg/domain-errors"
)

// productLocks serializes writes that touch the same product. Keys are
// distributed over a fixed set of mutexes, so unrelated products rarely
// contend and memory stays bounded.
const numProductShards = 128

type productLocks struct {
	shards [numProductShards]sync.Mutex
}

// Do runs fn while holding the shard for key.
func (l *productLocks) Do(ctx context.Context, key string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	shard := &l.shards[hashKey(key)%numProductShards]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn()
}

// hashKey is 32-bit FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
