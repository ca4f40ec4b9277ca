package embedding

import "sync"

// Cache hands out one provider per configuration so several recognizers
// share the same (possibly expensive) model.
type Cache struct {
	mu        sync.Mutex
	providers map[Config]Provider
	factory   func(Config) (Provider, error)
}

// NewCache returns a cache that builds providers with New.
func NewCache() *Cache {
	return NewCacheWith(New)
}

// NewCacheWith returns a cache that builds providers with factory.
func NewCacheWith(factory func(Config) (Provider, error)) *Cache {
	return &Cache{providers: make(map[Config]Provider), factory: factory}
}

// Get returns the cached provider for cfg, building it on first use.
func (c *Cache) Get(cfg Config) (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.providers[cfg]; ok {
		return p, nil
	}
	p, err := c.factory(cfg)
	if err != nil {
		return nil, err
	}
	c.providers[cfg] = p
	return p, nil
}

// Len reports how many providers are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.providers)
}
