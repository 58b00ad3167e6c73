// Package cache keeps fetched pages in memory for the development backend.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// Cache stores fetched pages keyed by URL.
type Cache interface {
	// Get returns the cached page and whether it was present and unexpired.
	Get(key string) (*models.PageData, bool)

	// Set stores a page for ttl, replacing any existing entry.
	Set(key string, data *models.PageData, ttl time.Duration) error

	// Delete removes a page. Missing keys are not an error.
	Delete(key string) error

	// Clear removes all pages.
	Clear() error

	// Close stops background cleanup.
	Close()
}

type cacheEntry struct {
	Data      *models.PageData
	ExpiresAt time.Time
	Key       string
	Size      int64
}

// MemoryCache is a size-bounded LRU cache with per-entry expiry
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List // front is most recently used
	mu      sync.RWMutex
	maxSize int64
	size    int64
	ttl     time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a cache holding at most maxSizeBytes of pages.
// defaultTTL applies when Set is called with a non-positive ttl.
func NewMemoryCache(maxSizeBytes int64, defaultTTL time.Duration) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 50 * 1024 * 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ttl:     defaultTTL,
		ctx:     ctx,
		cancel:  cancel,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached page and marks it most recently used
func (mc *MemoryCache) Get(key string) (*models.PageData, bool) {
	mc.mu.Lock()
	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	if time.Now().After(entry.ExpiresAt) {
		mc.removeElement(element)
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++
	mc.mu.Unlock()

	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Data, true
}

// Set stores a page, evicting least recently used pages until it fits
func (mc *MemoryCache) Set(key string, data *models.PageData, ttl time.Duration) error {
	if data == nil {
		return fmt.Errorf("cannot cache nil page for %s", key)
	}
	if ttl <= 0 {
		ttl = mc.ttl
	}

	size := entrySize(data)
	if size > mc.maxSize {
		return fmt.Errorf("page %s (%d bytes) exceeds cache capacity", key, size)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}

	for mc.size+size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	element := mc.lruList.PushFront(&cacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
		Size:      size,
	})
	mc.store[key] = element
	mc.size += size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", size).
		Msg("Cached page")

	return nil
}

// Delete removes a cached page
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
		log.Debug().Str("key", key).Msg("Deleted from cache")
	}

	return nil
}

// Clear removes all cached pages
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.size = 0
	mc.hits = 0
	mc.misses = 0

	log.Debug().Msg("Cache cleared")
	return nil
}

// Close stops the background cleanup goroutine
func (mc *MemoryCache) Close() {
	mc.cancel()
	log.Debug().Msg("Cache closed")
}

// Len returns the number of cached pages
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.lruList.Len()
}

// evictLRU must be called with the lock held
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	key := element.Value.(*cacheEntry).Key
	mc.removeElement(element)
	log.Debug().Str("key", key).Msg("Evicted from cache (LRU)")
}

// removeElement must be called with the lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size
}

func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			log.Debug().Msg("Cache cleanup routine stopped")
			return
		}
	}
}

// entrySize approximates the memory held by a cached page
func entrySize(data *models.PageData) int64 {
	size := int64(len(data.HTML) + len(data.Title) + len(data.URL))
	for k, v := range data.Headers {
		size += int64(len(k) + len(v))
	}
	return size + 512
}

// Stats returns cache statistics including hit rate
func (mc *MemoryCache) Stats() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	hitRate := 0.0
	total := mc.hits + mc.misses
	if total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"entries":     mc.lruList.Len(),
		"size_bytes":  mc.size,
		"max_size":    mc.maxSize,
		"utilization": float64(mc.size) / float64(mc.maxSize) * 100,
		"hits":        mc.hits,
		"misses":      mc.misses,
		"hit_rate":    hitRate,
	}
}

// KeyFor builds the cache key for a fetch of url with the given extra request headers.
// Pages fetched with different headers are cached separately.
func KeyFor(url string, headers map[string]string) string {
	if len(headers) == 0 {
		return url
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(url)
	for _, k := range keys {
		fmt.Fprintf(&b, "::%s=%s", strings.ToLower(k), headers[k])
	}
	return b.String()
}
