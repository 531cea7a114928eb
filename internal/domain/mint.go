package domain

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidMint is returned when a token identifier is not a well-formed
// base58 Solana address.
var ErrInvalidMint = errors.New("invalid mint address")

// mintByteLen is the decoded length of a Solana public key.
const mintByteLen = 32

// Mint is a validated Solana token mint address in canonical base58 form.
type Mint struct {
	raw string
}

// ParseMint validates s as a base58 Solana mint address. The string must
// decode under the Bitcoin base58 alphabet to exactly 32 bytes. Validation
// is purely local and performs no network activity.
func ParseMint(s string) (Mint, error) {
	if s == "" {
		return Mint{}, fmt.Errorf("%w: empty address", ErrInvalidMint)
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return Mint{}, fmt.Errorf("%w: %s", ErrInvalidMint, err)
	}
	if len(decoded) != mintByteLen {
		return Mint{}, fmt.Errorf("%w: decodes to %d bytes, want %d", ErrInvalidMint, len(decoded), mintByteLen)
	}
	return Mint{raw: s}, nil
}

// String returns the base58 form of the mint.
func (m Mint) String() string {
	return m.raw
}

// Bytes returns the 32-byte public key of the mint.
func (m Mint) Bytes() []byte {
	decoded, _ := base58.Decode(m.raw)
	return decoded
}

// IsZero reports whether the mint is the unvalidated zero value.
func (m Mint) IsZero() bool {
	return m.raw == ""
}
