package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares the checksum of data against a hex-encoded
// stored checksum. Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, stored string) error {
	sum := ComputeChecksum(data)
	if hex.EncodeToString(sum[:]) != stored {
		return ErrChecksumMismatch
	}
	return nil
}
