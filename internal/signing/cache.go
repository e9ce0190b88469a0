// Package signing caches per-project release credentials so the build
// pipeline does not hit the store on every attempt.
package signing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rpggio/appforge/internal/domain/project"
)

// Source loads a project's signing credential from durable storage.
type Source interface {
	GetSigning(ctx context.Context, tenantID, projectID string) (*project.SigningKey, error)
}

// Cache is a read-through credential cache keyed by tenant and project.
// Only present credentials are cached; a project without one is looked
// up again next time, so newly uploaded keystores take effect without
// a restart. Evict drops a single entry after a credential rotation.
type Cache struct {
	mu      sync.Mutex
	source  Source
	entries map[string]*project.SigningKey
}

func NewCache(source Source) *Cache {
	return &Cache{
		source:  source,
		entries: make(map[string]*project.SigningKey),
	}
}

// Get returns the project's signing credential, or nil when the project
// builds unsigned.
func (c *Cache) Get(ctx context.Context, tenantID, projectID string) (*project.SigningKey, error) {
	key := cacheKey(tenantID, projectID)

	c.mu.Lock()
	if cred, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cred, nil
	}
	c.mu.Unlock()

	cred, err := c.source.GetSigning(ctx, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading signing credential: %w", err)
	}
	if cred != nil {
		c.mu.Lock()
		c.entries[key] = cred
		c.mu.Unlock()
	}
	return cred, nil
}

// Evict drops the cached credential for one project.
func (c *Cache) Evict(tenantID, projectID string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(tenantID, projectID))
	c.mu.Unlock()
}

// Close clears all cached credentials.
func (c *Cache) Close() {
	c.mu.Lock()
	c.entries = make(map[string]*project.SigningKey)
	c.mu.Unlock()
}

func cacheKey(tenantID, projectID string) string {
	return tenantID + "/" + projectID
}
