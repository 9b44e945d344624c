// Package ledger tracks which provider transactions have already been
// handled so redelivered webhooks never double-enroll.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry states. A transaction is reserved while its orchestration runs and
// committed once a terminal outcome is reached. Entries are never pruned
// here; retention is an operational concern.
const (
	stateReserved  = "reserved"
	stateCommitted = "committed"
)

// Ledger is the processed-event set. Reserve is an atomic
// check-then-insert: exactly one of any number of concurrent calls for the
// same transaction id wins.
type Ledger interface {
	// Reserve marks the transaction as in-flight. It returns false when the
	// id is already reserved or committed.
	Reserve(ctx context.Context, txnID string) (bool, error)
	// Commit finalizes the entry after a terminal orchestration outcome.
	Commit(ctx context.Context, txnID string) error
	// Release drops an in-flight reservation whose orchestration never ran,
	// making the transaction eligible for redelivery.
	Release(ctx context.Context, txnID string) error
}

// Memory is a process-local Ledger guarded by a mutex. Suitable for a single
// instance; deployments with replicas use the Redis ledger.
type Memory struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemory builds an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Reserve(_ context.Context, txnID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[txnID]; exists {
		return false, nil
	}
	m.entries[txnID] = stateReserved
	return true, nil
}

func (m *Memory) Commit(_ context.Context, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[txnID] = stateCommitted
	return nil
}

func (m *Memory) Release(_ context.Context, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[txnID] == stateReserved {
		delete(m.entries, txnID)
	}
	return nil
}

// Redis is a Ledger backed by a shared Redis instance. Reservation relies on
// SET NX for atomicity across processes; the reservation carries a TTL so a
// crashed worker does not block the transaction forever, while committed
// entries persist without expiry.
type Redis struct {
	client     *redis.Client
	keyPrefix  string
	reserveTTL time.Duration
}

// NewRedis builds a Redis-backed ledger.
func NewRedis(client *redis.Client, reserveTTL time.Duration) *Redis {
	if reserveTTL <= 0 {
		reserveTTL = 15 * time.Minute
	}
	return &Redis{client: client, keyPrefix: "enroll:ledger:", reserveTTL: reserveTTL}
}

func (r *Redis) key(txnID string) string { return r.keyPrefix + txnID }

func (r *Redis) Reserve(ctx context.Context, txnID string) (bool, error) {
	return r.client.SetNX(ctx, r.key(txnID), stateReserved, r.reserveTTL).Result()
}

func (r *Redis) Commit(ctx context.Context, txnID string) error {
	return r.client.Set(ctx, r.key(txnID), stateCommitted, 0).Err()
}

func (r *Redis) Release(ctx context.Context, txnID string) error {
	// Only drop the key if it is still a reservation; a committed entry is
	// permanent.
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) end return 0`
	return r.client.Eval(ctx, script, []string{r.key(txnID)}, stateReserved).Err()
}
