package download

import (
	"sync"

	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ContentCache = (*Cache)(nil)

// Cache keeps materialised documents in memory for the session.
type Cache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

// Put stores data under id.
func (c *Cache) Put(id string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
}

// Get returns the bytes stored under id.
func (c *Cache) Get(id string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[id]
	return data, ok
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
