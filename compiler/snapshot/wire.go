package snapshot

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ivan-lang/ivan/compiler"
)

// Marshal serializes a snapshot to canonical CBOR bytes.
func Marshal(m *Module) ([]byte, error) {
	return cborEncMode.Marshal(m)
}

// Unmarshal deserializes a snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Module, error) {
	var m Module
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal module: %w", err)
	}
	if m.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %d", m.Version)
	}
	return &m, nil
}

// Fingerprint computes the SHA-256 content hash of a module's snapshot.
// The hash is stable across runs and across source formatting changes.
func Fingerprint(m *compiler.Module) ([32]byte, error) {
	data, err := Marshal(FromModule(m))
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// FingerprintHex is Fingerprint rendered as lowercase hex.
func FingerprintHex(m *compiler.Module) (string, error) {
	sum, err := Fingerprint(m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sum), nil
}
