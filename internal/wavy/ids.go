package wavy

import "github.com/google/uuid"

// GenerateAssetID returns a freshly generated, textual-canonical-form UUID
// for a newly promoted asset. Collisions are assumed impossible within the
// system's lifetime (128-bit random identifier).
func GenerateAssetID() string {
	return uuid.New().String()
}
