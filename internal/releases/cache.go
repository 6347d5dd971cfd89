package releases

import "github.com/temirov/fleet/internal/versioning"

type cacheEntry struct {
	version   versioning.Version
	published bool
}

// Cache remembers the last published version of each repository for one run.
type Cache struct {
	entries map[string]cacheEntry
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Lookup returns the cached entry for owner/repository. The second result reports
// whether a release was published; the third whether the key was cached at all.
func (cache *Cache) Lookup(owner string, repository string) (versioning.Version, bool, bool) {
	entry, found := cache.entries[cacheKey(owner, repository)]
	return entry.version, entry.published, found
}

// StorePublished records the latest published version of owner/repository.
func (cache *Cache) StorePublished(owner string, repository string, version versioning.Version) {
	cache.entries[cacheKey(owner, repository)] = cacheEntry{version: version, published: true}
}

// StoreUnpublished records that owner/repository has no published release.
func (cache *Cache) StoreUnpublished(owner string, repository string) {
	cache.entries[cacheKey(owner, repository)] = cacheEntry{}
}

func cacheKey(owner string, repository string) string {
	return owner + "/" + repository
}
