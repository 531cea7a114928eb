package solana

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// DeriveMetadataAddress derives the Metaplex token metadata PDA for a mint.
// Seeds: ["metadata", metadata_program_id, mint]. Returns "" when the mint
// is not a valid 32-byte base58 key or no off-curve bump exists.
func DeriveMetadataAddress(mint string) string {
	mintBytes, err := base58.Decode(mint)
	if err != nil || len(mintBytes) != 32 {
		return ""
	}
	programBytes, err := base58.Decode(MetadataProgramID)
	if err != nil {
		return ""
	}

	seeds := [][]byte{
		[]byte("metadata"),
		programBytes,
		mintBytes,
	}
	return derivePDA(seeds, programBytes)
}

// derivePDA finds the first off-curve program derived address, trying bump
// seeds from 255 downward per the Solana derivation algorithm.
func derivePDA(seeds [][]byte, programID []byte) string {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}
	return ""
}

// isOnCurve reports whether a 32-byte point decompresses on ed25519.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// Metadata is the name/symbol pair recovered from a Metaplex metadata
// account.
type Metadata struct {
	Name   string
	Symbol string
}

// DecodeMetadata parses base64 Metaplex token metadata account data.
// Layout: key u8 (4 = MetadataV1), update authority 32 bytes, mint 32
// bytes, then borsh strings (u32-LE length prefix) for name and symbol,
// NUL-padded. Returns nil when the account is not parseable metadata.
func DecodeMetadata(data string) *Metadata {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil
	}
	if len(decoded) < 70 {
		return nil
	}
	if decoded[0] != 4 { // MetadataV1
		return nil
	}

	// key(1) + updateAuthority(32) + mint(32)
	offset := 65

	name, offset, ok := readBorshString(decoded, offset, 100)
	if !ok {
		return nil
	}
	symbol, _, ok := readBorshString(decoded, offset, 20)
	if !ok {
		return nil
	}

	meta := &Metadata{
		Name:   strings.TrimRight(name, "\x00"),
		Symbol: strings.TrimRight(symbol, "\x00"),
	}
	if meta.Name == "" && meta.Symbol == "" {
		return nil
	}
	return meta
}

// readBorshString reads a u32-LE length-prefixed string at offset.
func readBorshString(data []byte, offset, maxLen int) (string, int, bool) {
	if offset+4 > len(data) {
		return "", offset, false
	}
	length := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if length > maxLen || offset+length > len(data) {
		return "", offset, false
	}
	return string(data[offset : offset+length]), offset + length, true
}
