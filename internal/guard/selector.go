package guard

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Selector is the 4-byte function identifier permissions are granted against,
// derived deterministically from the function's signature string.
type Selector [4]byte

// SelectorFromSignature derives the identifier for a signature such as
// "transfer(address,uint256)": the first four bytes of its keccak256 hash.
func SelectorFromSignature(signature string) Selector {
	var sel Selector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// ParseSelector decodes a 0x-prefixed or bare 8-hex-digit selector.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	raw := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return sel, fmt.Errorf("invalid selector %q: %w", s, err)
	}
	if len(b) != 4 {
		return sel, fmt.Errorf("invalid selector %q: want 4 bytes, got %d", s, len(b))
	}
	copy(sel[:], b)
	return sel, nil
}

// Hex returns the 0x-prefixed hex form.
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) String() string { return s.Hex() }

// IsZero reports whether the selector is all zero bytes.
func (s Selector) IsZero() bool {
	return s == Selector{}
}

// MarshalJSON encodes the selector as its hex form.
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Hex())
}

// UnmarshalJSON decodes the selector from hex.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sel, err := ParseSelector(str)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}

// RoleHash derives the 32-byte role identifier from its name.
func RoleHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// CategoryHash derives the 32-byte operation-category identifier from its name.
func CategoryHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}
