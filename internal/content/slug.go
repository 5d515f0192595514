package content

import (
	"path"
	"strings"

	"github.com/goliatone/go-slug"
)

// Slugify normalises value into a URL segment. Values the normaliser rejects
// fall back to a lower-cased, hyphen-joined form.
func Slugify(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if normalized, err := slug.Normalize(value); err == nil && normalized != "" {
		return normalized
	}
	return strings.Join(strings.Fields(strings.ToLower(value)), "-")
}

// ValidSlug reports whether value is already a normalised slug.
func ValidSlug(value string) bool {
	return slug.IsValid(value)
}

// slugFor prefers an explicit front matter slug, then the file name. Bundle
// files (index.md, _index.md) take the name of their directory.
func slugFor(p, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return Slugify(explicit)
	}
	name := path.Base(p)
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == "index" || stem == "_index" {
		parent := path.Base(path.Dir(p))
		if parent == "." || parent == "/" {
			return ""
		}
		stem = parent
	}
	return Slugify(stem)
}
