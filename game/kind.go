package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Kind identifies a game type.
type Kind string

const (
	KindSlots    Kind = "slots"
	KindCoinFlip Kind = "coinflip"
	KindWheel    Kind = "wheel"
	KindCardDuel Kind = "cardduel"
	KindPoker    Kind = "poker"
)

// AllKinds lists every game the engine knows about, single-player first.
var AllKinds = []Kind{KindSlots, KindCoinFlip, KindWheel, KindCardDuel, KindPoker}

// ParseKind converts a route or config key into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(AllKinds, k) {
		return "", fmt.Errorf("unknown game kind %q", s)
	}
	return k, nil
}

// SinglePlayer reports whether the engine is authoritative for this game.
func (k Kind) SinglePlayer() bool {
	return k != KindPoker
}

func (k Kind) String() string { return string(k) }
