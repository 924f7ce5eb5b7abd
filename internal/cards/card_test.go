package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteToCardCoversFullByteRange(t *testing.T) {
	t.Parallel()

	counts := make(map[Rank]int)
	for i := 0; i < 256; i++ {
		card := ByteToCard(byte(i))
		if card < Ace || card > King {
			t.Fatalf("ByteToCard(%d) = %d, out of range [0,12]", i, card)
		}
		counts[card]++
	}

	// 256 is not a multiple of 13: ranks 0-8 land 20 times, 9-12 land 19.
	// The skew is part of the encoding contract, not a bug.
	for r := Ace; r <= King; r++ {
		want := 20
		if r >= Ten {
			want = 19
		}
		if counts[r] != want {
			t.Errorf("rank %s: expected %d occurrences over a byte sweep, got %d", r, want, counts[r])
		}
	}
}

func TestWordFromHex(t *testing.T) {
	t.Parallel()

	w, err := WordFromHex("0x8e6e4a5cbf43b5d1ab1f5c6a9de2b7f30112233445566778899aabbccddeeff0")
	require.NoError(t, err)
	assert.Equal(t, byte(0x8e), w[0])
	assert.Equal(t, byte(0xf0), w[31])

	// Short input is left-padded, like a wide integer with leading zeros
	w, err = WordFromHex("ff")
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), w[0])
	assert.Equal(t, byte(0xff), w[31])

	_, err = WordFromHex("zz")
	assert.Error(t, err)

	_, err = WordFromHex("0x" + string(make([]byte, 130)))
	assert.Error(t, err)
}

func TestWordCardsOrderAndWidth(t *testing.T) {
	t.Parallel()

	var w Word
	w[0] = 12  // most significant byte → first card
	w[1] = 13  // 13 mod 13 → Ace
	w[31] = 25 // least significant byte → last card, 25 mod 13 = 12

	pool := w.Cards()
	require.Len(t, pool, 32)
	assert.Equal(t, King, pool[0])
	assert.Equal(t, Ace, pool[1])
	assert.Equal(t, King, pool[31])

	// Remaining zero bytes all decode as aces
	for i := 2; i < 31; i++ {
		assert.Equal(t, Ace, pool[i], "byte %d", i)
	}
}

func TestRankString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rank Rank
		want string
	}{
		{Ace, "A"},
		{Two, "2"},
		{Nine, "9"},
		{Ten, "T"},
		{Jack, "J"},
		{Queen, "Q"},
		{King, "K"},
		{Rank(13), "?"},
	}
	for _, tt := range tests {
		if got := tt.rank.String(); got != tt.want {
			t.Errorf("Rank(%d).String() = %q, want %q", tt.rank, got, tt.want)
		}
	}
}
