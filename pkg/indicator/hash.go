package indicator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Hash returns the SHA-256 of the RFC 8785 canonical form of raw, prefixed
// with "sha256:". Bodies that differ only in key order or whitespace hash
// the same.
func Hash(raw []byte) (string, error) {
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize: %v", ErrInvalidPayload, err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
