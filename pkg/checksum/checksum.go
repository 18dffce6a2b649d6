// Package checksum makes audit payloads tamper-evident. The checksum is a
// SHA-256 over the canonical JSON serialization of the payload (object keys
// sorted), computed before the checksum itself is embedded under the
// reserved key. Consumers re-derive and compare to detect tampering.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Key is the reserved payload key holding the embedded checksum.
const Key = "_checksum"

// ErrMissingChecksum is returned by Verify when the payload was never sealed.
var ErrMissingChecksum = errors.New("payload carries no " + Key + " key")

// MismatchError signals tampering: the stored checksum no longer matches the
// payload content. It must be surfaced, never silently ignored.
type MismatchError struct {
	Recorded string
	Derived  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: recorded %s, derived %s", e.Recorded, e.Derived)
}

// Compute hashes the canonical serialization of payload with the reserved
// key excluded. encoding/json emits object keys in sorted order at every
// nesting level, which is exactly the canonical form required here.
func Compute(payload map[string]interface{}) (string, error) {
	clean := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if k == Key {
			continue
		}
		clean[k] = v
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("canonical serialization failed: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Embed returns a copy of payload with the checksum attached under the
// reserved key, plus the checksum itself.
func Embed(payload map[string]interface{}) (map[string]interface{}, string, error) {
	sum, err := Compute(payload)
	if err != nil {
		return nil, "", err
	}
	sealed := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		sealed[k] = v
	}
	sealed[Key] = sum
	return sealed, sum, nil
}

// Verify re-derives the checksum of a sealed payload and compares it against
// the embedded one. Returns the verified checksum, or a *MismatchError.
func Verify(payload map[string]interface{}) (string, error) {
	recorded, ok := payload[Key].(string)
	if !ok || recorded == "" {
		return "", ErrMissingChecksum
	}
	derived, err := Compute(payload)
	if err != nil {
		return "", err
	}
	if derived != recorded {
		return "", &MismatchError{Recorded: recorded, Derived: derived}
	}
	return recorded, nil
}
