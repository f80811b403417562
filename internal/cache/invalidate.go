package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries whose SavedAt is older than maxAge and returns
// how many were removed. Unreadable or malformed metadata is skipped.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkMeta(dir, func(metaPath string) {
		b, err := os.ReadFile(metaPath)
		if err != nil {
			return
		}
		var e PageEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return
		}
		removed++
		removeEntry(metaPath)
	})
	return removed, err
}

// EnforceLimits evicts least recently used entries until the cache holds at
// most maxEntries entries and maxBytes body bytes. Zero disables a limit.
func EnforceLimits(dir string, maxBytes int64, maxEntries int) (int, error) {
	if maxBytes <= 0 && maxEntries <= 0 {
		return 0, nil
	}
	type entry struct {
		meta string
		size int64
		used time.Time
	}
	var entries []entry
	var total int64
	err := walkMeta(dir, func(metaPath string) {
		info, err := os.Stat(strings.TrimSuffix(metaPath, metaSuffix) + bodySuffix)
		if err != nil {
			return
		}
		entries = append(entries, entry{meta: metaPath, size: info.Size(), used: info.ModTime()})
		total += info.Size()
	})
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].used.Before(entries[j].used) })

	removed := 0
	for _, e := range entries {
		overCount := maxEntries > 0 && len(entries)-removed > maxEntries
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		removeEntry(e.meta)
		total -= e.size
		removed++
	}
	return removed, nil
}

func walkMeta(dir string, fn func(metaPath string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), metaSuffix) {
			return nil
		}
		fn(path)
		return nil
	})
}

func removeEntry(metaPath string) {
	_ = os.Remove(metaPath)
	_ = os.Remove(strings.TrimSuffix(metaPath, metaSuffix) + bodySuffix)
}
