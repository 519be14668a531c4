// Package cards implements the card duel: a 52-card deck, ace-flexible
// scoring and a dealer that draws to 17.
package cards

import (
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/samber/lo"
)

// Suit of a card.
type Suit string

const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// DealerStandsOn is the score at which the dealer stops drawing.
const DealerStandsOn = 17

const imageBase = "https://deckofcardsapi.com/static/img/"

// Card is immutable once drawn.
type Card struct {
	Rank  int    `json:"rank"`
	Suit  Suit   `json:"suit"`
	Image string `json:"image"`
}

// Value is the blackjack value with aces counted low.
func (c Card) Value() int {
	return min(c.Rank, 10)
}

// IsAce reports whether c is an ace.
func (c Card) IsAce() bool { return c.Rank == 1 }

// IsHigh reports whether c is an ace or a ten-value card.
func (c Card) IsHigh() bool { return c.Rank == 1 || c.Rank >= 10 }

func (c Card) String() string {
	return fmt.Sprintf("%s%c", rankCode(c.Rank), c.Suit[0]-'a'+'A')
}

func rankCode(rank int) string {
	switch rank {
	case 1:
		return "A"
	case 10:
		return "0"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprint(rank)
	}
}

func newCard(rank int, suit Suit) Card {
	c := Card{Rank: rank, Suit: suit}
	c.Image = imageBase + c.String() + ".png"
	return c
}

// Deck is the full 52-card model in suit-major order.
var Deck = func() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for r := 1; r <= 13; r++ {
			deck = append(deck, newCard(r, s))
		}
	}
	return deck
}()

var highDeck = lo.Filter(Deck, func(c Card, _ int) bool { return c.IsHigh() })

// Draw returns one card drawn uniformly from the model. With favorHigh the
// pool is restricted to aces and ten-value cards.
func Draw(src rng.Source, favorHigh bool) Card {
	if favorHigh {
		return rng.Pick(src, highDeck)
	}
	return rng.Pick(src, Deck)
}

// Hand is an ordered sequence of cards.
type Hand []Card

// Score sums card values and promotes aces by 10 while the total stays <= 21.
func (h Hand) Score() int {
	total, aces := 0, 0
	for _, c := range h {
		total += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for ; aces > 0 && total+10 <= 21; aces-- {
		total += 10
	}
	return total
}

// Bust reports whether the hand is over 21.
func (h Hand) Bust() bool { return h.Score() > 21 }

// DealerPlay draws onto dealer until it reaches DealerStandsOn.
func DealerPlay(src rng.Source, dealer Hand, favorHigh bool) Hand {
	for dealer.Score() < DealerStandsOn {
		dealer = append(dealer, Draw(src, favorHigh))
	}
	return dealer
}

// Result of comparing two hands.
type Result string

const (
	PlayerWins Result = "player"
	DealerWins Result = "dealer"
	Push       Result = "push"
)

// Resolve compares the final hands. A bust hand always loses, the player's first.
func Resolve(player, dealer Hand) Result {
	switch ps, ds := player.Score(), dealer.Score(); {
	case ps > 21:
		return DealerWins
	case ds > 21:
		return PlayerWins
	case ps == ds:
		return Push
	case ps > ds:
		return PlayerWins
	default:
		return DealerWins
	}
}
