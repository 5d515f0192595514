// Package identity derives stable identifiers for blog records so feeds and
// search indexes keep the same IDs across builds.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from key using go-hashid, falling back to
// a SHA-1 name-based UUID. Keys should carry a record-type prefix.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DocumentUUID identifies an article by its slash path under the content root.
// The ID survives edits to the title or date but not a rename.
func DocumentUUID(path string) uuid.UUID {
	return UUID("go-blog:document:" + strings.TrimPrefix(strings.TrimSpace(path), "/"))
}

// TermUUID identifies a taxonomy term.
func TermUUID(taxonomy, termSlug string) uuid.UUID {
	return UUID("go-blog:term:" + strings.ToLower(strings.TrimSpace(taxonomy)) + ":" + strings.ToLower(strings.TrimSpace(termSlug)))
}

// GUID renders id as a URN suitable for RSS <guid isPermaLink="false">.
func GUID(id uuid.UUID) string {
	return id.URN()
}
