package policy

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corporatepay/console-api/models"
)

// CacheKey identifies one resolved effective-policy scope.
type CacheKey struct {
	OrgID   uuid.UUID
	GroupID *uuid.UUID
	UserID  *uuid.UUID
}

// String returns a string representation of the cache key
func (k CacheKey) String() string {
	s := k.OrgID.String()
	if k.GroupID != nil {
		s += ":" + k.GroupID.String()
	} else {
		s += ":-"
	}
	if k.UserID != nil {
		s += ":" + k.UserID.String()
	} else {
		s += ":-"
	}
	return s
}

// cacheEntry represents a single cache entry with TTL
type cacheEntry struct {
	key        CacheKey
	document   models.PolicyDocument
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// EffectiveCache is an in-memory LRU cache with TTL for merged effective
// policy documents. Thread-safe.
type EffectiveCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// NewEffectiveCache creates an EffectiveCache with the given max size and TTL.
func NewEffectiveCache(maxSize int, ttl time.Duration) *EffectiveCache {
	return &EffectiveCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached effective document. The second return value reports
// whether a fresh entry was found.
func (c *EffectiveCache) Get(key CacheKey) (models.PolicyDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()
	entry, exists := c.entries[keyStr]

	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(keyStr)
		}
		return models.PolicyDocument{}, false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.document, true
}

// Set stores an effective document in the cache.
func (c *EffectiveCache) Set(key CacheKey, document models.PolicyDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()

	if entry, exists := c.entries[keyStr]; exists {
		entry.document = document
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		key:        key,
		document:   document,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(keyStr)
	c.entries[keyStr] = entry
}

// InvalidateOrg removes all cache entries for an organization. Any policy
// write invalidates at least the affected scope; org document writes use this.
func (c *EffectiveCache) InvalidateOrg(orgID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for keyStr, entry := range c.entries {
		if entry.key.OrgID == orgID {
			c.removeEntry(keyStr)
		}
	}
}

// InvalidateGroup removes all cache entries that resolved through a group.
// Users inherit through their group, so user-scope entries go too.
func (c *EffectiveCache) InvalidateGroup(groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for keyStr, entry := range c.entries {
		if entry.key.GroupID != nil && *entry.key.GroupID == groupID {
			c.removeEntry(keyStr)
		}
	}
}

// InvalidateUser removes all cache entries for a user.
func (c *EffectiveCache) InvalidateUser(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for keyStr, entry := range c.entries {
		if entry.key.UserID != nil && *entry.key.UserID == userID {
			c.removeEntry(keyStr)
		}
	}
}

// Clear removes all entries from the cache
func (c *EffectiveCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns cache statistics
func (c *EffectiveCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: c.calculateHitRate(),
	}
}

func (c *EffectiveCache) calculateHitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *EffectiveCache) removeEntry(keyStr string) {
	if entry, exists := c.entries[keyStr]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, keyStr)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held)
func (c *EffectiveCache) evictLRU() {
	backElement := c.lruList.Back()
	if backElement != nil {
		keyStr := backElement.Value.(string)
		c.lruList.Remove(backElement)
		delete(c.entries, keyStr)
	}
}

// CleanupExpired removes all expired entries and returns how many were dropped.
func (c *EffectiveCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiredKeys := make([]string, 0)
	for keyStr, entry := range c.entries {
		if entry.isExpired(c.ttl) {
			expiredKeys = append(expiredKeys, keyStr)
		}
	}
	for _, keyStr := range expiredKeys {
		c.removeEntry(keyStr)
	}

	return len(expiredKeys)
}

// StartCleanupWorker periodically drops expired entries until stopCh closes.
func (c *EffectiveCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}
