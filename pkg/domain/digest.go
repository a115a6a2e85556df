package domain

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DigestSize is the length in bytes of a document verification hash.
const DigestSize = 32

// Digest is a fixed-length binary digest used as a tamper-evidence check for
// a document's content. It is set at issuance and never changes.
type Digest [DigestSize]byte

// ParseDigest decodes a hex-encoded digest string.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("decode digest: %w", err)
	}
	if len(raw) != DigestSize {
		return Digest{}, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// Equal compares two digests in constant time.
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// MarshalJSON encodes the digest as a hex string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a hex string digest.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
