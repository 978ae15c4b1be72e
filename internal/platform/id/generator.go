// Package id derives stable universal identifiers from canonical entity keys.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ShortLength is the preferred identifier length. Collisions extend the id one
// hex character at a time instead of aliasing two distinct entities.
const ShortLength = 12

// TakenFunc reports whether an id is already assigned to a different logical
// entity. Callers must answer false for the id currently mapped to the same
// key so re-derivation stays idempotent.
type TakenFunc func(id string) bool

// Derive hashes the given key parts into a short hex identifier. The same
// parts always produce the same candidate sequence, so re-running a sync can
// never reassign an existing entity.
func Derive(taken TakenFunc, parts ...string) (string, error) {
	digest := sha256.Sum256([]byte(joinKey(parts)))
	full := hex.EncodeToString(digest[:])

	if taken == nil {
		return full[:ShortLength], nil
	}
	for length := ShortLength; length <= len(full); length++ {
		candidate := full[:length]
		if !taken(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("identifier space exhausted for key %q", joinKey(parts))
}

func joinKey(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed = append(trimmed, strings.TrimSpace(strings.ToLower(part)))
	}
	return strings.Join(trimmed, "|")
}
