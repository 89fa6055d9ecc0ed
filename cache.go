package canchannels

import (
	"sync"
	"time"
)

// PostCache is an in-memory TTL cache over the public post list. Only read
// views are cached; permission checks never go through here.
type PostCache struct {
	mu      sync.RWMutex
	posts   []PostView
	fetched time.Time
	ttl     time.Duration
	repo    *ContentRepository
}

// NewPostCache creates a PostCache backed by the given repository.
func NewPostCache(repo *ContentRepository, ttl time.Duration) *PostCache {
	return &PostCache{repo: repo, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// List returns the cached public post list, reloading it when stale. It
// tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) List() []PostView {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		c.posts = c.repo.List()
		c.fetched = time.Now()
	}
	return c.posts
}
