package engine

import "testing"

func TestResolveOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		player int
		dealer int
		want   Outcome
	}{
		{"player bust loses", 22, 18, OutcomeDealerWin},
		{"player bust loses even to dealer bust", 22, 23, OutcomeDealerWin},
		{"dealer bust pays player", 18, 22, OutcomePlayerWin},
		{"higher value wins for player", 20, 18, OutcomePlayerWin},
		{"higher value wins for dealer", 17, 19, OutcomeDealerWin},
		{"equal values push", 19, 19, OutcomePush},
		{"both twenty-one push", 21, 21, OutcomePush},
		{"natural vs dealer seventeen", 21, 17, OutcomePlayerWin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveOutcome(tt.player, tt.dealer); got != tt.want {
				t.Errorf("resolveOutcome(%d, %d) = %s, want %s", tt.player, tt.dealer, got, tt.want)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	if OutcomePlayerWin.String() != "player_win" {
		t.Error("unexpected player win string")
	}
	if OutcomeDealerWin.String() != "dealer_win" {
		t.Error("unexpected dealer win string")
	}
	if OutcomePush.String() != "push" {
		t.Error("unexpected push string")
	}
	if OutcomeUndecided.String() != "undecided" {
		t.Error("unexpected undecided string")
	}
}
