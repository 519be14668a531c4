package ledger

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// KeyKind tags which half of the Key union is set.
type KeyKind uint8

const (
	KeyNumber KeyKind = iota + 1
	KeyBonus
)

// Bonus names a bonus segment.
type Bonus string

const (
	BonusCoinFlip  Bonus = "Coin Flip"
	BonusPachinko  Bonus = "Pachinko"
	BonusCashHunt  Bonus = "Cash Hunt"
	BonusCrazyTime Bonus = "Crazy Time"
)

// Key is a bet target: Number(n) or Bonus(name).
type Key struct {
	Kind   KeyKind
	Number int
	Bonus  Bonus
}

// Number builds a numeric key.
func Number(n int) Key { return Key{Kind: KeyNumber, Number: n} }

// BonusKey builds a bonus key.
func BonusKey(b Bonus) Key { return Key{Kind: KeyBonus, Bonus: b} }

// Keys is the fixed, ordered key set of the wheel.
var Keys = []Key{
	Number(1), Number(2), Number(5), Number(10),
	BonusKey(BonusCoinFlip), BonusKey(BonusPachinko), BonusKey(BonusCashHunt), BonusKey(BonusCrazyTime),
}

// Valid reports whether k is one of Keys.
func (k Key) Valid() bool {
	return lo.Contains(Keys, k)
}

// IsBonus reports whether k names a bonus segment.
func (k Key) IsBonus() bool { return k.Kind == KeyBonus }

func (k Key) String() string {
	if k.Kind == KeyBonus {
		return string(k.Bonus)
	}
	return strconv.Itoa(k.Number)
}

// ParseKey is the inverse of String.
func ParseKey(s string) (Key, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if k := Number(n); k.Valid() {
			return k, nil
		}
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	if k := BonusKey(Bonus(s)); k.Valid() {
		return k, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// MarshalText lets Key be used as a JSON object key.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrUnknownKey, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
