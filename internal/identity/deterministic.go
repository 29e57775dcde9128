package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
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

// DocumentUUID keys a source document by its repo-relative path so rebuilt
// indexes keep stable IDs across machines.
func DocumentUUID(sourcePath string) uuid.UUID {
	return UUID("blog:document:" + strings.TrimSpace(sourcePath))
}

// CategoryUUID keys a category by its normalised slug.
func CategoryUUID(slug string) uuid.UUID {
	return UUID("blog:category:" + strings.ToLower(strings.TrimSpace(slug)))
}

// BuildUUID keys a build record by the output dir plus start time formatted
// by the caller.
func BuildUUID(key string) uuid.UUID {
	return UUID("blog:build:" + strings.TrimSpace(key))
}

// JobUUID keys a scheduler job by its idempotency key.
func JobUUID(key string) uuid.UUID {
	return UUID("blog:job:" + strings.TrimSpace(key))
}
