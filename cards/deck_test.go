package cards

import (
	"testing"

	"github.com/Digital-Creators-Team/casino-engine/rng"
)

func card(rank int) Card { return newCard(rank, Spades) }

func hand(ranks ...int) Hand {
	h := make(Hand, 0, len(ranks))
	for _, r := range ranks {
		h = append(h, card(r))
	}
	return h
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		hand  Hand
		score int
	}{
		{"ace ace nine", hand(1, 1, 9), 21},
		{"four aces nine", hand(1, 1, 1, 1, 9), 13},
		{"blackjack", hand(1, 13), 21},
		{"face cards are ten", hand(11, 12), 20},
		{"soft ace demoted", hand(1, 9, 5), 15},
		{"bust", hand(10, 12, 5), 25},
		{"empty", Hand{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hand.Score(); got != tt.score {
				t.Errorf("Score() = %d, want %d", got, tt.score)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		player Hand
		dealer Hand
		want   Result
	}{
		{"higher wins", hand(10, 9), hand(10, 7), PlayerWins},
		{"lower loses", hand(10, 6), hand(10, 8), DealerWins},
		{"equal is push", hand(10, 8), hand(9, 9), Push},
		{"player bust loses even if dealer busts", hand(10, 10, 5), hand(10, 10, 3), DealerWins},
		{"dealer bust", hand(10, 2), hand(10, 6, 9), PlayerWins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.player, tt.dealer); got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDrawFavorHigh(t *testing.T) {
	src := rng.NewSeeded(7)
	for i := 0; i < 500; i++ {
		if c := Draw(src, true); !c.IsHigh() {
			t.Fatalf("favored draw returned %v", c)
		}
	}
	if len(highDeck) != 20 {
		t.Errorf("expected 20 high cards, got %d", len(highDeck))
	}
}

func TestDealerPlayStopsAt17(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		d := DealerPlay(rng.NewSeeded(seed), hand(2, 3), seed%2 == 0)
		if d.Score() < DealerStandsOn {
			t.Fatalf("seed %d: dealer stopped at %d", seed, d.Score())
		}
		if prefix := d[:len(d)-1].Score(); prefix >= DealerStandsOn {
			t.Fatalf("seed %d: dealer drew past %d", seed, prefix)
		}
	}
}

func TestDeckImages(t *testing.T) {
	if len(Deck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(Deck))
	}
	if got := newCard(10, Hearts).Image; got != imageBase+"0H.png" {
		t.Errorf("unexpected image %s", got)
	}
	if got := newCard(1, Clubs).String(); got != "AC" {
		t.Errorf("unexpected code %s", got)
	}
}
