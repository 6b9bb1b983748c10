package staticlist

import (
	"context"
	"fmt"
	"net/url"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/clearskye/epic-connector/core"
)

const listCacheKeyPrefix = "epic-connector::staticlist::v1"

// RecordSource is the read side of a static list store.
type RecordSource interface {
	Records(ctx context.Context) ([]core.Record, error)
}

// CachedStore keeps parsed lists in the cache service so repeated
// searches do not re-read and re-parse the file.
type CachedStore struct {
	base  RecordSource
	cache repositorycache.CacheService
	key   string
}

func NewCachedStore(base RecordSource, cacheService repositorycache.CacheService, listName string) (*CachedStore, error) {
	if base == nil {
		return nil, fmt.Errorf("staticlist: base record source is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("staticlist: cache service is required")
	}
	if listName == "" {
		return nil, fmt.Errorf("staticlist: list name is required")
	}
	return &CachedStore{
		base:  base,
		cache: cacheService,
		key:   ListCacheKey(listName),
	}, nil
}

// ListCacheKey returns the deterministic cache key for a list:
// epic-connector::staticlist::v1::<list-name> with the name URL-path
// escaped.
func ListCacheKey(listName string) string {
	return listCacheKeyPrefix + "::" + url.PathEscape(listName)
}

func (s *CachedStore) Records(ctx context.Context) ([]core.Record, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("staticlist: cached store is not configured")
	}
	records, err := repositorycache.GetOrFetch(ctx, s.cache, s.key, func(ctx context.Context) ([]core.Record, error) {
		return s.base.Records(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *CachedStore) Search(ctx context.Context, query Query) (Page, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return Page{}, err
	}
	return applyQuery(records, query), nil
}

// Invalidate drops the cached copy so the next read hits the file again.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("staticlist: cached store is not configured")
	}
	return s.cache.Delete(ctx, s.key)
}

var _ RecordSource = (*Store)(nil)
var _ RecordSource = (*CachedStore)(nil)
