package service

import (
	"context"
	"sync"
	"time"

	dErrors "teampulse/pkg/domain-errors"
)

// Stores gives a transaction callback access to every store participating in
// the same atomic unit. A record mutation and its audit entry either both
// commit or neither does.
type Stores struct {
	Feedback FeedbackStore
	Audit    AuditStore
}

// StoreTx provides the transactional boundary for lifecycle mutations.
// Implementations may wrap a database transaction or, in-memory, a sharded
// lock. The key is a serialization hint: operations with the same key must
// not interleave. Database-backed implementations may ignore it and rely on
// transaction isolation instead.
type StoreTx interface {
	RunInTx(ctx context.Context, key string, fn func(stores Stores) error) error
}

// shardedTx provides fine-grained locking using sharded mutexes. Instead of a
// single global lock, operations are distributed across N shards based on a
// hash of the key (normally the feedback id), reducing contention under
// concurrent load.
const numTxShards = 128

// defaultTxTimeout is the maximum duration for a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	stores  Stores
	timeout time.Duration
}

// NewInMemoryTx builds a StoreTx over in-memory stores for tests and
// single-process deployments.
func NewInMemoryTx(stores Stores) StoreTx {
	return &shardedTx{stores: stores}
}

func (t *shardedTx) RunInTx(ctx context.Context, key string, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.shards[shardFor(key)].Lock()
	defer t.shards[shardFor(key)].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.stores)
}

func shardFor(key string) int {
	return int(fnvHash(key) % numTxShards)
}

// fnvHash is FNV-1a for good distribution across shards.
func fnvHash(s string) uint32 {
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
