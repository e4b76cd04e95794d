package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// File-backed cache for rendered campground detail pages. Pages are cheap
// to rebuild but read-heavy, so entries carry a short TTL and are cleared
// eagerly whenever the campground or its comments/reviews change.

const cacheDir = "cache/campgrounds"

// CachePath returns the cache file path for a campground detail page.
// Numeric IDs are normalized so "07" and "7" share one entry and one
// invalidation.
func CachePath(campgroundID string) string {
	if n, err := strconv.Atoi(campgroundID); err == nil {
		campgroundID = strconv.Itoa(n)
	}
	hash := xxhash.Sum64String("campground:" + campgroundID)
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%016x.html", campgroundID, hash))
}

// WriteCache writes rendered HTML to the cache file.
func WriteCache(campgroundID, html string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(CachePath(campgroundID), []byte(html), 0644)
}

// ReadCache returns the cached HTML if it exists and has not expired.
func ReadCache(campgroundID string, maxAge time.Duration) (string, bool) {
	path := CachePath(campgroundID)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) > maxAge {
		return "", false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	return string(content), true
}

// ClearCache removes the cached page for one campground.
func ClearCache(campgroundID string) error {
	err := os.Remove(CachePath(campgroundID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll removes every cached page.
func ClearAll() error {
	return os.RemoveAll(cacheDir)
}

// ClearOldCache removes cache files older than maxAge.
func ClearOldCache(maxAge time.Duration) error {
	return filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}
		return nil
	})
}
