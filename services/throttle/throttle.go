// Package throttle enforces the mandatory cool-down between requests to the
// same external domain. The delay is a hard sequencing point: Reserve does
// not return until the domain's previous cool-down has elapsed.
package throttle

import (
	"context"
	"math"
	"sync"
	"time"

	"adscout/listingworker/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

// Ledger hands out per-domain request slots.
type Ledger interface {
	// Reserve blocks until the domain may be contacted again, then records
	// a new cool-down of the given duration.
	Reserve(ctx context.Context, domain string, delay time.Duration) error
}

const cooldownKeyPrefix = "cooldown:"

// MemcacheLedger shares the cool-down ledger across worker replicas.
type MemcacheLedger struct {
	client *memcache.Client
	poll   time.Duration
	log    *logger.Logger
}

// NewMemcacheLedger creates a ledger backed by the memcache at serverAddr.
func NewMemcacheLedger(serverAddr string) *MemcacheLedger {
	return &MemcacheLedger{
		client: memcache.New(serverAddr),
		poll:   200 * time.Millisecond,
		log:    logger.ForThrottle(),
	}
}

// Reserve claims the domain's slot with an atomic add-if-absent: exactly one
// concurrent caller wins the Add, everyone else polls until the cool-down key
// expires. Memcache expirations are whole seconds, so the delay rounds up.
func (m *MemcacheLedger) Reserve(ctx context.Context, domain string, delay time.Duration) error {
	key := cooldownKeyPrefix + domain
	seconds := int32(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	for {
		err := m.client.Add(&memcache.Item{
			Key:        key,
			Value:      []byte(time.Now().UTC().Format(time.RFC3339)),
			Expiration: seconds,
		})
		if err == nil {
			return nil
		}
		if err != memcache.ErrNotStored {
			// Treat a broken ledger as open: a lost cool-down is better
			// than a stalled run
			m.log.Warn().Err(err).Str("domain", domain).Msg("Cool-down ledger unavailable")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.poll):
		}
	}
}

// MemoryLedger is the in-process ledger used when no memcache address is
// configured, and in tests.
type MemoryLedger struct {
	mu   sync.Mutex
	next map[string]time.Time
}

// NewMemoryLedger creates an in-process cool-down ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{next: make(map[string]time.Time)}
}

// Reserve sleeps until the domain's cool-down has elapsed, then schedules
// the next allowed request time.
func (m *MemoryLedger) Reserve(ctx context.Context, domain string, delay time.Duration) error {
	m.mu.Lock()
	now := time.Now()
	wait := m.next[domain].Sub(now)
	if wait < 0 {
		wait = 0
	}
	m.next[domain] = now.Add(wait + delay)
	m.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
