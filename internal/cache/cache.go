// Package cache keeps recently captured pages so repeated extractions of the
// same offer do not hit the marketplace again.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Defaults used when the caller passes zero values.
const (
	DefaultMaxBytes = 64 * 1024 * 1024
	DefaultTTL      = 5 * time.Minute
	entryOverhead   = 1024
)

// Cache stores page snapshots by key.
type Cache interface {
	// Get returns a live snapshot for key.
	Get(key string) (*models.PageSnapshot, bool)
	// Set stores snap for ttl, evicting least recently used entries as needed.
	Set(key string, snap *models.PageSnapshot, ttl time.Duration) error
	// Delete removes key; missing keys are not an error.
	Delete(key string) error
	// Clear drops every entry.
	Clear() error
	// Close stops background cleanup.
	Close()
}

type entry struct {
	key       string
	snap      *models.PageSnapshot
	size      int64
	expiresAt time.Time
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries  int
	Bytes    int64
	MaxBytes int64
	Hits     uint64
	Misses   uint64
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// MemoryCache is an in-memory LRU bounded by the approximate snapshot size.
type MemoryCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	lru      *list.List
	maxBytes int64
	bytes    int64
	hits     uint64
	misses   uint64

	now    func() time.Time
	cancel context.CancelFunc
}

// NewMemoryCache returns a cache holding up to maxBytes of page HTML.
func NewMemoryCache(maxBytes int64) *MemoryCache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		maxBytes: maxBytes,
		now:      time.Now,
		cancel:   cancel,
	}
	go mc.cleanupLoop(ctx, time.Minute)
	return mc
}

// Get implements Cache.
func (mc *MemoryCache) Get(key string) (*models.PageSnapshot, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el, ok := mc.items[key]
	if !ok {
		mc.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if mc.now().After(e.expiresAt) {
		mc.removeElement(el)
		mc.misses++
		return nil, false
	}

	mc.lru.MoveToFront(el)
	mc.hits++
	log.Debug().Str("key", key).Msg("Snapshot cache hit")
	return e.snap, true
}

// Set implements Cache.
func (mc *MemoryCache) Set(key string, snap *models.PageSnapshot, ttl time.Duration) error {
	if snap == nil {
		return fmt.Errorf("cache: nil snapshot for %s", key)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := snapshotSize(snap)
	if size > mc.maxBytes {
		return fmt.Errorf("cache: snapshot of %d bytes exceeds capacity %d", size, mc.maxBytes)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok {
		mc.removeElement(el)
	}
	for mc.bytes+size > mc.maxBytes && mc.lru.Len() > 0 {
		evicted := mc.lru.Back()
		log.Debug().Str("key", evicted.Value.(*entry).key).Msg("Evicted snapshot (LRU)")
		mc.removeElement(evicted)
	}

	el := mc.lru.PushFront(&entry{
		key:       key,
		snap:      snap,
		size:      size,
		expiresAt: mc.now().Add(ttl),
	})
	mc.items[key] = el
	mc.bytes += size

	log.Debug().Str("key", key).Dur("ttl", ttl).Int64("size_bytes", size).Msg("Cached snapshot")
	return nil
}

// Delete implements Cache.
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if el, ok := mc.items[key]; ok {
		mc.removeElement(el)
	}
	return nil
}

// Clear implements Cache.
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.items = make(map[string]*list.Element)
	mc.lru.Init()
	mc.bytes = 0
	return nil
}

// Close implements Cache.
func (mc *MemoryCache) Close() {
	mc.cancel()
}

// Stats returns current usage counters.
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return Stats{
		Entries:  mc.lru.Len(),
		Bytes:    mc.bytes,
		MaxBytes: mc.maxBytes,
		Hits:     mc.hits,
		Misses:   mc.misses,
	}
}

// removeElement must be called with mu held.
func (mc *MemoryCache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	mc.lru.Remove(el)
	delete(mc.items, e.key)
	mc.bytes -= e.size
}

func (mc *MemoryCache) purgeExpired() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	purged := 0
	var next *list.Element
	for el := mc.lru.Front(); el != nil; el = next {
		next = el.Next()
		if now.After(el.Value.(*entry).expiresAt) {
			mc.removeElement(el)
			purged++
		}
	}
	return purged
}

func (mc *MemoryCache) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := mc.purgeExpired(); n > 0 {
				log.Debug().Int("purged", n).Msg("Expired snapshots removed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func snapshotSize(snap *models.PageSnapshot) int64 {
	return int64(len(snap.HTML)+len(snap.Title)+len(snap.URL)) + entryOverhead
}

// Key builds the cache key for a capture of pageURL with the given engine mode.
// Browser captures carry evaluated globals, so they are cached apart from
// static ones.
func Key(pageURL string, mode models.FetchMode) string {
	if mode == "" {
		mode = models.ModeAuto
	}
	return string(mode) + "::" + pageURL
}
