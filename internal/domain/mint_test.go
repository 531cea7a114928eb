package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMint_Valid(t *testing.T) {
	valid := []string{
		"So11111111111111111111111111111111111111112",  // wrapped SOL
		"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",  // SPL token program
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
		strings.Repeat("1", 32),                        // system program, 32 zero bytes
	}

	for _, s := range valid {
		mint, err := ParseMint(s)
		if err != nil {
			t.Errorf("ParseMint(%q) failed: %v", s, err)
			continue
		}
		if mint.String() != s {
			t.Errorf("ParseMint(%q).String() = %q", s, mint.String())
		}
		if len(mint.Bytes()) != 32 {
			t.Errorf("ParseMint(%q) decoded to %d bytes", s, len(mint.Bytes()))
		}
	}
}

func TestParseMint_Invalid(t *testing.T) {
	invalid := []string{
		"",                       // empty
		"abc",                    // far too short
		strings.Repeat("1", 31),  // 31 bytes
		strings.Repeat("1", 33),  // 33 bytes
		"So1111111111111111111111111111111111111111!", // illegal character
		"OIl0aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // excluded alphabet letters
	}

	for _, s := range invalid {
		_, err := ParseMint(s)
		if err == nil {
			t.Errorf("ParseMint(%q) should fail", s)
			continue
		}
		if !errors.Is(err, ErrInvalidMint) {
			t.Errorf("ParseMint(%q) error = %v, want ErrInvalidMint", s, err)
		}
	}
}

func TestMint_IsZero(t *testing.T) {
	var zero Mint
	if !zero.IsZero() {
		t.Error("zero value mint should report IsZero")
	}

	mint, err := ParseMint("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("ParseMint failed: %v", err)
	}
	if mint.IsZero() {
		t.Error("parsed mint should not report IsZero")
	}
}
