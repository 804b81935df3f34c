// Package scholarhash fingerprints raw scholarship feed items.
//
// The fingerprint is stored on the scholarship row and later compared to
// decide whether an incoming item has changed and needs an update, and to
// build the archive set for each import cycle.
package scholarhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/anand-gl/jsoncanonicalizer"
)

// Fingerprint returns the SHA-256 hex digest of the RFC 8785 canonical form
// of a raw JSON scholarship. Key order in the input is irrelevant; any value
// change yields a different digest.
func Fingerprint(raw []byte) (string, error) {
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize scholarship: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
