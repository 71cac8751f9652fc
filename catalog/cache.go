// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/openxosc/xosc-core/xosc"
)

// DefaultCacheCapacity is the per-store capacity used when none is configured.
const DefaultCacheCapacity = 100

// entrySizeEstimate is the rough in-memory size charged per cached entity.
const entrySizeEstimate = 1 << 10

// CacheEntry is a snapshot of one cached value and its bookkeeping.
type CacheEntry[T any] struct {
	Value        T
	CreatedAt    time.Time
	LastAccessed time.Time
	// Size is a heuristic estimate in bytes.
	Size int64
}

// CacheStats summarizes cache activity.
type CacheStats struct {
	Hits        uint64
	Misses      uint64
	Entries     int
	MemoryUsage int64
	CreatedAt   time.Time
}

// TotalRequests returns the number of Get calls counted.
func (s CacheStats) TotalRequests() uint64 {
	return s.Hits + s.Misses
}

// HitRatio returns hits divided by total requests, or 0 before any request.
func (s CacheStats) HitRatio() float64 {
	total := s.TotalRequests()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CatalogEntries is the entries of one kind read from one catalog file.
type CatalogEntries[E xosc.Entity] struct {
	Catalog string
	Entries []E
}

// FileEntry is a parsed catalog file and the digest of the bytes it was
// parsed from.
type FileEntry struct {
	Digest digest.Digest
	File   *xosc.CatalogFile
}

// Cache holds parsed catalog content in five independently locked stores.
// Each store holds at most Capacity entries and evicts the least recently
// read entry to admit a new one. A Cache is safe for concurrent use and is
// meant to be shared.
type Cache struct {
	capacity  atomic.Int64
	clock     atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
	createdAt time.Time
	now       func() time.Time

	controllers  *Store[CatalogEntries[xosc.Controller]]
	trajectories *Store[CatalogEntries[xosc.Trajectory]]
	routes       *Store[CatalogEntries[xosc.Route]]
	environments *Store[CatalogEntries[xosc.Environment]]
	files        *Store[FileEntry]
}

// NewCache creates a cache holding up to capacity entries per store. A
// capacity of zero disables caching.
func NewCache(capacity int) *Cache {
	c := &Cache{now: time.Now}
	c.createdAt = c.now()
	c.capacity.Store(int64(max(capacity, 0)))

	c.controllers = newStore(c, cloneEntries[xosc.Controller], entriesSize[xosc.Controller])
	c.trajectories = newStore(c, cloneEntries[xosc.Trajectory], entriesSize[xosc.Trajectory])
	c.routes = newStore(c, cloneEntries[xosc.Route], entriesSize[xosc.Route])
	c.environments = newStore(c, cloneEntries[xosc.Environment], entriesSize[xosc.Environment])
	c.files = newStore(c, cloneFileEntry, fileEntrySize)
	return c
}

type deepCopier[E any] interface {
	xosc.Entity
	DeepCopy() E
}

func cloneEntries[E deepCopier[E]](v CatalogEntries[E]) CatalogEntries[E] {
	return CatalogEntries[E]{Catalog: v.Catalog, Entries: xosc.DeepCopyAll(v.Entries)}
}

func entriesSize[E xosc.Entity](v CatalogEntries[E]) int64 {
	return int64(len(v.Entries)+1) * entrySizeEstimate
}

func cloneFileEntry(e FileEntry) FileEntry {
	return FileEntry{Digest: e.Digest, File: e.File.DeepCopy()}
}

func fileEntrySize(e FileEntry) int64 {
	if e.File == nil || e.File.Catalog == nil {
		return entrySizeEstimate
	}
	return int64(len(e.File.Catalog.Entries())+1) * entrySizeEstimate
}

// Controllers returns the store of controller entries, keyed per file.
func (c *Cache) Controllers() *Store[CatalogEntries[xosc.Controller]] { return c.controllers }

// Trajectories returns the store of trajectory entries, keyed per file.
func (c *Cache) Trajectories() *Store[CatalogEntries[xosc.Trajectory]] { return c.trajectories }

// Routes returns the store of route entries, keyed per file.
func (c *Cache) Routes() *Store[CatalogEntries[xosc.Route]] { return c.routes }

// Environments returns the store of environment entries, keyed per file.
func (c *Cache) Environments() *Store[CatalogEntries[xosc.Environment]] { return c.environments }

// Files returns the store of parsed catalog files, keyed by path.
func (c *Cache) Files() *Store[FileEntry] { return c.files }

// Capacity returns the per-store capacity.
func (c *Cache) Capacity() int {
	return int(c.capacity.Load())
}

// SetCapacity changes the per-store capacity, evicting least recently read
// entries from every store that holds more than n.
func (c *Cache) SetCapacity(n int) {
	n = max(n, 0)
	c.capacity.Store(int64(n))
	c.controllers.shrink(n)
	c.trajectories.shrink(n)
	c.routes.shrink(n)
	c.environments.shrink(n)
	c.files.shrink(n)
}

// Clear empties every store. Counters are kept.
func (c *Cache) Clear() {
	c.controllers.clear()
	c.trajectories.clear()
	c.routes.clear()
	c.environments.clear()
	c.files.clear()
}

// InvalidateFile drops the parsed file at path and every entry derived from
// it. It returns the number of entries removed.
func (c *Cache) InvalidateFile(path string) int {
	return c.files.invalidateSource(path) +
		c.controllers.invalidateSource(path) +
		c.trajectories.invalidateSource(path) +
		c.routes.invalidateSource(path) +
		c.environments.invalidateSource(path)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	s := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		CreatedAt: c.createdAt,
	}
	for _, u := range []usage{
		c.controllers.usage(), c.trajectories.usage(), c.routes.usage(),
		c.environments.usage(), c.files.usage(),
	} {
		s.Entries += u.entries
		s.MemoryUsage += u.bytes
	}
	return s
}

type usage struct {
	entries int
	bytes   int64
}

// slot is a stored value. value, createdAt, size and source never change
// after insertion; recency is updated under the read lock.
type slot[T any] struct {
	value     T
	createdAt time.Time
	size      int64
	source    string

	tick         atomic.Uint64
	lastAccessed atomic.Int64
}

// Store is one keyed store of a Cache.
type Store[T any] struct {
	cache   *Cache
	cloneFn func(T) T
	sizeFn  func(T) int64

	mu      sync.RWMutex
	entries map[string]*slot[T]
}

func newStore[T any](c *Cache, cloneFn func(T) T, sizeFn func(T) int64) *Store[T] {
	return &Store[T]{
		cache:   c,
		cloneFn: cloneFn,
		sizeFn:  sizeFn,
		entries: make(map[string]*slot[T]),
	}
}

// Get returns a copy of the value stored under key. A hit marks the entry as
// most recently read.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	sl, ok := s.entries[key]
	if ok {
		s.touch(sl)
	}
	s.mu.RUnlock()

	if !ok {
		s.cache.misses.Add(1)
		var zero T
		return zero, false
	}
	s.cache.hits.Add(1)
	return s.cloneFn(sl.value), true
}

// Entry returns a snapshot of the entry under key without counting a request
// or changing its recency.
func (s *Store[T]) Entry(key string) (CacheEntry[T], bool) {
	s.mu.RLock()
	sl, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return CacheEntry[T]{}, false
	}
	return CacheEntry[T]{
		Value:        s.cloneFn(sl.value),
		CreatedAt:    sl.createdAt,
		LastAccessed: time.Unix(0, sl.lastAccessed.Load()),
		Size:         sl.size,
	}, true
}

// Put stores a copy of v under key. When the store is full and key is new,
// the least recently read entry is evicted first.
func (s *Store[T]) Put(key string, v T) {
	s.put(key, key, v)
}

// put stores v under key, recording source as the file it derives from.
func (s *Store[T]) put(key, source string, v T) {
	capacity := s.cache.Capacity()
	if capacity == 0 {
		return
	}

	now := s.cache.now()
	sl := &slot[T]{
		value:     s.cloneFn(v),
		createdAt: now,
		size:      s.sizeFn(v),
		source:    source,
	}
	sl.tick.Store(s.cache.clock.Add(1))
	sl.lastAccessed.Store(now.UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists {
		for len(s.entries) >= capacity {
			s.evictLocked()
		}
	}
	s.entries[key] = sl
}

// Invalidate removes key. It reports whether an entry was removed.
func (s *Store[T]) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// Len returns the number of entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the stored keys in sorted order.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *Store[T]) touch(sl *slot[T]) {
	sl.tick.Store(s.cache.clock.Add(1))
	sl.lastAccessed.Store(s.cache.now().UnixNano())
}

// evictLocked removes the entry with the oldest read. Callers hold mu.
func (s *Store[T]) evictLocked() {
	var (
		victim string
		oldest uint64
		found  bool
	)
	for k, sl := range s.entries {
		if t := sl.tick.Load(); !found || t < oldest {
			victim, oldest, found = k, t, true
		}
	}
	if found {
		delete(s.entries, victim)
	}
}

func (s *Store[T]) shrink(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.entries) > n {
		s.evictLocked()
	}
}

func (s *Store[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

func (s *Store[T]) invalidateSource(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, sl := range s.entries {
		if sl.source == source {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

func (s *Store[T]) usage() usage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := usage{entries: len(s.entries)}
	for _, sl := range s.entries {
		u.bytes += sl.size
	}
	return u
}
