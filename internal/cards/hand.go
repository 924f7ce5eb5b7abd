package cards

// Hand is an ordered sequence of card ranks. Hands only ever grow; a
// draw appends and nothing is removed until the game is settled.
type Hand []Rank

// baseValue returns the value of a rank before ace adjustment: aces
// count 11, pip ranks count their face value, ten-valued ranks count 10.
func baseValue(r Rank) int {
	switch {
	case r == Ace:
		return 11
	case r.IsTenValued():
		return 10
	default:
		return int(r) + 1
	}
}

// HandValue scores a blackjack hand. Each ace starts at 11 and is
// demoted to 1 while the total exceeds 21 and a soft ace remains. The
// empty hand scores 0.
func HandValue(hand Hand) int {
	value := 0
	aces := 0
	for _, r := range hand {
		if r == Ace {
			aces++
		}
		value += baseValue(r)
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value
}

// IsBust returns true if the hand's value exceeds 21
func IsBust(hand Hand) bool {
	return HandValue(hand) > 21
}

// IsNatural returns true for a two-card 21
func IsNatural(hand Hand) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}

// String renders the hand as a compact rank list, e.g. "A T 4"
func (h Hand) String() string {
	if len(h) == 0 {
		return "(empty)"
	}
	out := make([]byte, 0, len(h)*2)
	for i, r := range h {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, r.String()...)
	}
	return string(out)
}
