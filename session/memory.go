package session

import (
	"context"
	"sync"
	"time"
)

// shardCount must stay a power of two so masking replaces modulo.
const shardCount = 64

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

func fnv32a(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

type memoryEntry struct {
	userID    string
	expiresAt int64 // unix nanoseconds
}

type tokenShard struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type userShard struct {
	mu     sync.Mutex
	tokens map[string]map[string]struct{}
}

// Memory is an in-process Cache: a token table partitioned across 64
// lock-striped shards plus a matching user index for bulk invalidation.
// Operations on different tokens proceed in parallel; operations on the
// same token serialize on one shard lock.
//
// Expiry is lazy: Get removes dead entries as it finds them. PurgeExpired
// (or the janitor started by StartJanitor) sweeps the rest so abandoned
// sessions do not accumulate.
type Memory struct {
	tokens [shardCount]tokenShard
	users  [shardCount]userShard

	clock func() time.Time

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

// NewMemory returns an empty in-process session cache.
func NewMemory() *Memory {
	m := &Memory{
		clock:       time.Now,
		stopJanitor: make(chan struct{}),
	}
	for i := range m.tokens {
		m.tokens[i].entries = make(map[string]memoryEntry)
	}
	for i := range m.users {
		m.users[i].tokens = make(map[string]map[string]struct{})
	}
	return m
}

func (m *Memory) tokenShard(token string) *tokenShard {
	return &m.tokens[fnv32a(token)&(shardCount-1)]
}

func (m *Memory) userShard(userID string) *userShard {
	return &m.users[fnv32a(userID)&(shardCount-1)]
}

// Put registers token -> userID for ttl. Re-registering an existing token
// is an upstream logic error; Put overwrites and keeps the index coherent
// rather than corrupting state.
func (m *Memory) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := memoryEntry{
		userID:    userID,
		expiresAt: m.clock().Add(ttl).UnixNano(),
	}

	ts := m.tokenShard(token)
	ts.mu.Lock()
	previous, existed := ts.entries[token]
	ts.entries[token] = entry
	ts.mu.Unlock()

	if existed && previous.userID != userID {
		m.unindex(previous.userID, token)
	}
	m.index(userID, token)
	return nil
}

// Get resolves token to its owning user id. Expired entries are removed on
// the way out and reported as ErrExpired.
func (m *Memory) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ts := m.tokenShard(token)
	ts.mu.RLock()
	entry, ok := ts.entries[token]
	ts.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}
	if m.clock().UnixNano() >= entry.expiresAt {
		m.remove(token)
		return "", ErrExpired
	}
	return entry.userID, nil
}

// Invalidate removes token. Removing an absent token is a no-op.
func (m *Memory) Invalidate(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.remove(token)
	return nil
}

// InvalidateAllForUser removes every session owned by userID, sparing any
// keep tokens.
func (m *Memory) InvalidateAllForUser(ctx context.Context, userID string, keep ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kept := make(map[string]struct{}, len(keep))
	for _, token := range keep {
		kept[token] = struct{}{}
	}

	us := m.userShard(userID)
	us.mu.Lock()
	var doomed []string
	for token := range us.tokens[userID] {
		if _, spare := kept[token]; spare {
			continue
		}
		doomed = append(doomed, token)
		delete(us.tokens[userID], token)
	}
	if len(us.tokens[userID]) == 0 {
		delete(us.tokens, userID)
	}
	us.mu.Unlock()

	for _, token := range doomed {
		ts := m.tokenShard(token)
		ts.mu.Lock()
		delete(ts.entries, token)
		ts.mu.Unlock()
	}
	return nil
}

// PurgeExpired sweeps all shards and reports how many dead sessions were
// evicted. Correctness never depends on it; Get already refuses expired
// entries.
func (m *Memory) PurgeExpired() int {
	now := m.clock().UnixNano()
	purged := 0

	for i := range m.tokens {
		ts := &m.tokens[i]
		ts.mu.Lock()
		var doomed []memoryEntry
		var tokens []string
		for token, entry := range ts.entries {
			if now >= entry.expiresAt {
				tokens = append(tokens, token)
				doomed = append(doomed, entry)
				delete(ts.entries, token)
			}
		}
		ts.mu.Unlock()

		for j, token := range tokens {
			m.unindex(doomed[j].userID, token)
		}
		purged += len(tokens)
	}
	return purged
}

// StartJanitor launches a background sweep every interval. It may be called
// at most once; Close stops it.
func (m *Memory) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.PurgeExpired()
			case <-m.stopJanitor:
				return
			}
		}
	}()
}

// Close stops the janitor goroutine, if any. Idempotent.
func (m *Memory) Close() {
	m.stopOnce.Do(func() {
		close(m.stopJanitor)
	})
}

func (m *Memory) remove(token string) {
	ts := m.tokenShard(token)
	ts.mu.Lock()
	entry, ok := ts.entries[token]
	delete(ts.entries, token)
	ts.mu.Unlock()

	if ok {
		m.unindex(entry.userID, token)
	}
}

func (m *Memory) index(userID, token string) {
	us := m.userShard(userID)
	us.mu.Lock()
	set, ok := us.tokens[userID]
	if !ok {
		set = make(map[string]struct{})
		us.tokens[userID] = set
	}
	set[token] = struct{}{}
	us.mu.Unlock()
}

func (m *Memory) unindex(userID, token string) {
	us := m.userShard(userID)
	us.mu.Lock()
	if set, ok := us.tokens[userID]; ok {
		delete(set, token)
		if len(set) == 0 {
			delete(us.tokens, userID)
		}
	}
	us.mu.Unlock()
}
