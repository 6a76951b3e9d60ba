// Package integrations provides the shared HTTP client used by remote index
// sources.
//
// # Client Pattern
//
// Index clients embed [Client] and build their requests on top of it:
//
//	c := integrations.NewClient(fileCache, map[string]string{
//	    "Accept": "application/vnd.github+json",
//	})
//	data, err := c.Cached(ctx, key, cache.TTLContent, false, func() ([]byte, error) {
//	    return c.GetBytes(ctx, url, nil)
//	})
//
// [Client] handles:
//   - response caching through any [cache.Cache] backend
//   - retries with exponential backoff for network errors, 429 and 5xx
//   - HTTP observability hooks for every request
//
// 404 responses map to [ErrNotFound] and are never retried.
//
// # Subpackages
//
//   - [github]: GitHub tree listing and raw content, an index source
//
// [github]: github.com/matzehuels/dtsm/pkg/integrations/github
// [cache.Cache]: github.com/matzehuels/dtsm/pkg/cache.Cache
package integrations
