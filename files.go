/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Faces used when no image directory is configured.
var builtinFaces = []string{
	"🥐", "🧀", "🍷", "🗼", "🥖",
	"🎨", "🚲", "🎭", "🍇", "🐓",
	"🏰", "⛵", "🌻", "🎻", "🍰",
	"🐌", "🌹", "📯", "🎩", "🥂",
}

var imageExtensions = []string{".avif", ".gif", ".jpeg", ".jpg", ".png", ".svg", ".webp"}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

func isImage(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}

// listImages returns the image file names directly inside dir, sorted.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !isImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}

	slices.Sort(names)

	return names, nil
}

// pairKeys picks the pairing keys for every deck: image URLs when an image
// directory is configured, otherwise built-in faces.
func pairKeys(cfg *Config) ([]string, error) {
	if cfg.images == "" {
		if cfg.pairs > len(builtinFaces) {
			return nil, fmt.Errorf("%w (%d > %d)", ErrTooManyPairs, cfg.pairs, len(builtinFaces))
		}
		return slices.Clone(builtinFaces[:cfg.pairs]), nil
	}

	names, err := listImages(cfg.images)
	if err != nil {
		return nil, err
	}

	if len(names) < cfg.pairs {
		return nil, fmt.Errorf("%w: found %d in %s, need %d", ErrNotEnoughImages, len(names), cfg.images, cfg.pairs)
	}

	keys := make([]string, cfg.pairs)
	for i, name := range names[:cfg.pairs] {
		keys[i] = cfg.prefix + "/images/" + url.PathEscape(name)
	}

	return keys, nil
}
