package sku

import (
	"sort"
	"strings"
)

// NormalizeName trims, lowercases and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// FindImage looks up the image for a variant name: exact match, then
// normalized match, then containment in either direction. Returns "" when no
// tier matches.
func FindImage(name string, images map[string]string) string {
	if name == "" || len(images) == 0 {
		return ""
	}
	if img, ok := images[name]; ok {
		return img
	}

	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	target := NormalizeName(name)
	for _, k := range keys {
		if NormalizeName(k) == target {
			return images[k]
		}
	}

	if target == "" {
		return ""
	}
	for _, k := range keys {
		nk := NormalizeName(k)
		if nk == "" {
			continue
		}
		if strings.Contains(target, nk) || strings.Contains(nk, target) {
			return images[k]
		}
	}
	return ""
}
