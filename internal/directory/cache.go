// Package directory caches conversation summaries for thread
// selection. The cache is refreshed wholesale from the persistence
// collaborator; it is never patched from local mutations, so previews
// can go stale but never drift from what the store actually holds.
package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/logging"
)

// DefaultLimit bounds how many summaries a refresh fetches.
const DefaultLimit = 50

// Lister is the slice of the persistence collaborator the cache needs.
type Lister interface {
	List(ctx context.Context, persona domain.Persona, limit int) ([]domain.Summary, error)
}

// Cache holds the most recent wholesale snapshot of the directory.
type Cache struct {
	lister Lister
	limit  int
	log    *logging.Logger

	mu        sync.RWMutex
	summaries []domain.Summary
}

func New(lister Lister, limit int) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Cache{
		lister: lister,
		limit:  limit,
		log:    logging.New("directory"),
	}
}

// Refresh replaces the cached summaries with a fresh bounded,
// recency-ordered listing. On failure the previous snapshot is kept.
func (c *Cache) Refresh(ctx context.Context, persona domain.Persona) ([]domain.Summary, error) {
	summaries, err := c.lister.List(ctx, persona, c.limit)
	if err != nil {
		return nil, fmt.Errorf("refresh directory: %w", err)
	}

	c.mu.Lock()
	c.summaries = summaries
	c.mu.Unlock()

	c.log.Debug("refreshed", map[string]interface{}{"threads": len(summaries)})
	return c.Summaries(), nil
}

// Summaries returns a copy of the current snapshot.
func (c *Cache) Summaries() []domain.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Summary(nil), c.summaries...)
}

// Len returns the size of the current snapshot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.summaries)
}
