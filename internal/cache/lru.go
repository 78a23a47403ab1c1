package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type lruEntry struct {
	key     string
	bytes   int64
	modUnix int64
}

// EnforceHTTPCacheLimits evicts least-recently-used entries until the cache
// holds at most maxCount entries and at most maxBytes of body data. A zero
// limit disables that dimension. Recency is the body file's mtime, which
// Save sets and LoadBody refreshes. Returns how many entries were evicted.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var items []lruEntry
	var total int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".body") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, lruEntry{
			key:     strings.TrimSuffix(name, ".body"),
			bytes:   info.Size(),
			modUnix: info.ModTime().UnixNano(),
		})
		total += info.Size()
	}
	sort.Slice(items, func(i, j int) bool { return items[i].modUnix < items[j].modUnix })

	removed := 0
	for _, it := range items {
		overCount := maxCount > 0 && len(items)-removed > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		_ = os.Remove(filepath.Join(dir, it.key+".body"))
		_ = os.Remove(filepath.Join(dir, it.key+".meta.json"))
		total -= it.bytes
		removed++
	}
	return removed, nil
}
