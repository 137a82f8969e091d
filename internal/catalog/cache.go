package catalog

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/theirongolddev/anggaran/internal/model"
)

// Cached wraps a Lookup with bounded LRU caches for repeated id lookups and
// searches. It is safe for concurrent use.
type Cached struct {
	next     Lookup
	ids      *lru.Cache[string, model.AccountCode]
	searches *lru.Cache[string, []model.AccountCode]
}

// NewCached returns a caching decorator holding at most capacity entries per
// cache.
func NewCached(next Lookup, capacity int) (*Cached, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("catalog cache capacity must be positive, got %d", capacity)
	}
	ids, err := lru.New[string, model.AccountCode](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating id cache: %w", err)
	}
	searches, err := lru.New[string, []model.AccountCode](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating search cache: %w", err)
	}
	return &Cached{next: next, ids: ids, searches: searches}, nil
}

// FindByID consults the cache before the wrapped lookup. Misses are not cached.
func (c *Cached) FindByID(id string) (model.AccountCode, bool) {
	if ac, ok := c.ids.Get(id); ok {
		return ac, true
	}
	ac, ok := c.next.FindByID(id)
	if ok {
		c.ids.Add(id, ac)
	}
	return ac, ok
}

// FindByFullCode passes through; full-code lookups are rare.
func (c *Cached) FindByFullCode(code string) (model.AccountCode, bool) {
	return c.next.FindByFullCode(code)
}

// Search caches result sets by trimmed, lower-cased query.
func (c *Cached) Search(text string) []model.AccountCode {
	key := strings.ToLower(strings.TrimSpace(text))
	if res, ok := c.searches.Get(key); ok {
		return append([]model.AccountCode(nil), res...)
	}
	res := c.next.Search(text)
	c.searches.Add(key, append([]model.AccountCode(nil), res...))
	return res
}

// All passes through.
func (c *Cached) All() []model.AccountCode {
	return c.next.All()
}

// Len reports how many ids and searches are currently cached.
func (c *Cached) Len() (ids, searches int) {
	return c.ids.Len(), c.searches.Len()
}
