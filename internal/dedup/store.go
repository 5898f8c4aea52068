// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Store is the id -> canonical-id map maintained across canonicalization
// calls. It backs GetCanonicalID lookups for candidates folded into a
// canonical record in an earlier batch.
type Store interface {
	// Get returns the canonical id recorded for id, if any.
	Get(id string) (string, bool)

	// Set records id as belonging to the group represented by canonicalID.
	Set(id, canonicalID string)

	// Close releases any resources held by the store.
	Close() error
}

// Compile-time interface verification
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BadgerStore)(nil)
)

// memEntry is a node of the MemoryStore's doubly-linked recency list.
type memEntry struct {
	key   string
	value string
	prev  *memEntry
	next  *memEntry
}

// MemoryStore is the default in-process canonical-id map: a thread-safe LRU
// with O(1) Get, Set, and eviction, using a doubly-linked list for ordering
// and a hashmap for lookups. Capacity bounds memory over long traffic runs;
// evicted mappings simply fall back to "unknown id" semantics.
type MemoryStore struct {
	mu sync.RWMutex

	capacity int
	items    map[string]*memEntry

	// head.next is most recently used, tail.prev least recently used.
	head *memEntry
	tail *memEntry
}

// NewMemoryStore creates a memory store bounded to capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100000
	}

	s := &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*memEntry, capacity),
		head:     &memEntry{},
		tail:     &memEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Get returns the canonical id recorded for id.
func (s *MemoryStore) Get(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return "", false
	}
	s.moveToFront(e)
	return e.value, true
}

// Set records the canonical id for id, evicting the least recently used
// entry when over capacity.
func (s *MemoryStore) Set(id, canonicalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[id]; ok {
		e.value = canonicalID
		s.moveToFront(e)
		return
	}

	e := &memEntry{key: id, value: canonicalID}
	s.items[id] = e
	s.insertFront(e)

	if len(s.items) > s.capacity {
		lru := s.tail.prev
		s.unlink(lru)
		delete(s.items, lru.key)
	}
}

// Len returns the current number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) insertFront(e *memEntry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *MemoryStore) unlink(e *memEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (s *MemoryStore) moveToFront(e *memEntry) {
	s.unlink(e)
	s.insertFront(e)
}

// BadgerStore persists the canonical-id map to disk so lookups survive
// process restarts. Lookup errors degrade to "not found" — the dedup engine
// must keep working when the store is unhealthy.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenBadgerStore opens (or creates) a badger-backed store at path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadgerStore(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open canonical-id store at %s: %w", path, err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "canonical-store").Logger(),
	}, nil
}

// Get returns the canonical id recorded for id.
func (s *BadgerStore) Get(id string) (string, bool) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("id", id).Msg("canonical-id lookup failed")
		}
		return "", false
	}
	return value, true
}

// Set records the canonical id for id.
func (s *BadgerStore) Set(id, canonicalID string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), []byte(canonicalID))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("canonical-id write failed")
	}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
