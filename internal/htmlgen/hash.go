package htmlgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
)

// hashLength is the number of hex characters kept from the digest, matching
// the short-hash length build tools conventionally embed in asset URLs.
const hashLength = 20

// contentHash fingerprints the build inputs: a sha256 over every source
// file's content, paths visited in sorted order so the hash is stable for a
// given input set.
func contentHash(sources []string) (string, error) {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	h := sha256.New()
	for _, src := range sorted {
		data, err := os.ReadFile(src) // #nosec G304 -- page sources are build configuration
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPageRead, err)
		}
		h.Write([]byte(src))
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLength], nil
}
