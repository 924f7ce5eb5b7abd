package cards

import (
	"encoding/hex"
	"fmt"
)

// Rank represents a card rank. Ace is rank 0, ranks 1..8 are the pip
// cards 2..9, and ranks 9..12 are the ten-valued cards (10, J, Q, K).
type Rank int

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return "?"
	}
}

// IsAce returns true if the rank is an Ace
func (r Rank) IsAce() bool {
	return r == Ace
}

// IsTenValued returns true for the four ranks worth ten (10, J, Q, K)
func (r Rank) IsTenValued() bool {
	return r >= Ten && r <= King
}

// ByteToCard maps one byte of oracle entropy onto a rank as b mod 13.
// The function is total over all 256 byte values. Because 256 is not a
// multiple of 13, ranks 0-8 occur 20 times across a full byte sweep and
// ranks 9-12 occur 19 times; that skew is a documented property of the
// encoding and audit tooling asserts it exactly.
func ByteToCard(b byte) Rank {
	return Rank(b % 13)
}

// WordSize is the width in bytes of one oracle entropy word.
const WordSize = 32

// Word is a single 256-bit entropy word as delivered by the randomness
// oracle, big-endian (most significant byte first).
type Word [WordSize]byte

// WordFromHex parses a word from a hex string, with or without a 0x
// prefix. Shorter strings are left-padded with zeros, matching how wide
// integers print with leading zeros stripped.
func WordFromHex(s string) (Word, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s) > WordSize*2 {
		return Word{}, fmt.Errorf("cards: hex word too long: %d chars", len(s))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Word{}, fmt.Errorf("cards: invalid hex word: %w", err)
	}
	var w Word
	copy(w[WordSize-len(raw):], raw)
	return w, nil
}

// String returns the word as 0x-prefixed hex
func (w Word) String() string {
	return "0x" + hex.EncodeToString(w[:])
}

// Cards decomposes the word into its 32 constituent bytes, most
// significant byte first, and maps each through ByteToCard. One
// fulfillment word therefore yields a pool of 32 card draws.
func (w Word) Cards() []Rank {
	pool := make([]Rank, WordSize)
	for i, b := range w {
		pool[i] = ByteToCard(b)
	}
	return pool
}
