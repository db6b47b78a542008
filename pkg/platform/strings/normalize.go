// Package strings holds the small text normalizers shared by stores and services.
package strings

import (
	"strings"
)

// NormalizeSet trims, lower-cases and de-duplicates values, dropping blanks.
// First-seen order is kept. A nil or empty input yields an empty, non-nil slice.
func NormalizeSet(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := NormalizeKey(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}

// NormalizeKey is the single-value form of NormalizeSet.
func NormalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// DefaultIfBlank returns def when v is empty after trimming, else the trimmed v.
func DefaultIfBlank(v, def string) string {
	if t := strings.TrimSpace(v); t != "" {
		return t
	}
	return def
}
