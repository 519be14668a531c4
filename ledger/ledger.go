// Package ledger keeps the wheel bet map, its undo history and the
// snapshot used by "repeat last bet".
package ledger

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// BetMap maps every key in Keys to its stake. All keys are always present.
type BetMap map[Key]decimal.Decimal

// NewBetMap returns a map with every key at zero.
func NewBetMap() BetMap {
	m := make(BetMap, len(Keys))
	for _, k := range Keys {
		m[k] = decimal.Zero
	}
	return m
}

// Stake returns the amount on k.
func (m BetMap) Stake(k Key) decimal.Decimal {
	if v, ok := m[k]; ok {
		return v
	}
	return decimal.Zero
}

// Total is the round stake.
func (m BetMap) Total() decimal.Decimal {
	return lo.Reduce(Keys, func(acc decimal.Decimal, k Key, _ int) decimal.Decimal {
		return acc.Add(m.Stake(k))
	}, decimal.Zero)
}

// Backed returns the keys carrying a positive stake, in Keys order.
func (m BetMap) Backed() []Key {
	return lo.Filter(Keys, func(k Key, _ int) bool {
		return m.Stake(k).IsPositive()
	})
}

// Clone returns a copy with missing keys filled in.
func (m BetMap) Clone() BetMap {
	c := NewBetMap()
	for k, v := range m {
		if k.Valid() {
			c[k] = v
		}
	}
	return c
}

// Equal compares stakes key by key.
func (m BetMap) Equal(o BetMap) bool {
	return lo.EveryBy(Keys, func(k Key) bool {
		return m.Stake(k).Equal(o.Stake(k))
	})
}

// Entry is one PlaceBet recorded for undo.
type Entry struct {
	Key    Key             `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

// Undo is the bet a CancelLast just took back, with the key's prior stake.
type Undo struct {
	Entry Entry           `json:"entry"`
	Prior decimal.Decimal `json:"prior"`
}

// Ledger is the per-player wheel betting state.
type Ledger struct {
	Bets        BetMap  `json:"bets"`
	History     []Entry `json:"history,omitempty"`
	LastSettled BetMap  `json:"lastSettled,omitempty"`
	// Cancelled is set only while the last action was a CancelLast.
	Cancelled *Undo `json:"cancelled,omitempty"`
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{Bets: NewBetMap()}
}

func (l *Ledger) ensure() {
	if l.Bets == nil {
		l.Bets = NewBetMap()
	} else {
		l.Bets = l.Bets.Clone()
	}
}

// PlaceBet adds amount to key and records it for undo.
func (l *Ledger) PlaceBet(key Key, amount decimal.Decimal) error {
	if !key.Valid() {
		return ErrUnknownKey
	}
	if !amount.IsPositive() {
		return ErrNonPositive
	}
	l.ensure()
	l.Bets[key] = l.Bets[key].Add(amount)
	l.History = append(l.History, Entry{Key: key, Amount: amount})
	l.Cancelled = nil
	return nil
}

// CancelLast undoes the most recent bet. The stake is floored at zero.
func (l *Ledger) CancelLast() (Entry, error) {
	if len(l.History) == 0 {
		return Entry{}, ErrNothingToCancel
	}
	l.ensure()
	last := l.History[len(l.History)-1]
	l.History = l.History[:len(l.History)-1]
	l.Cancelled = &Undo{Entry: last, Prior: l.Bets.Stake(last.Key)}
	l.Bets[last.Key] = decimal.Max(decimal.Zero, l.Bets[last.Key].Sub(last.Amount))
	return last, nil
}

// RepeatLast right after a CancelLast puts the cancelled bet back. Otherwise
// it replaces the current bets with the last settled snapshot. Each bet it
// adds is pushed to the history so it can be cancelled.
func (l *Ledger) RepeatLast() error {
	if u := l.Cancelled; u != nil {
		l.ensure()
		l.Bets[u.Entry.Key] = u.Prior
		l.History = append(l.History, u.Entry)
		l.Cancelled = nil
		return nil
	}
	if l.LastSettled == nil || !l.LastSettled.Total().IsPositive() {
		return ErrNothingToRepeat
	}
	l.Bets = l.LastSettled.Clone()
	l.History = lo.Map(l.Bets.Backed(), func(k Key, _ int) Entry {
		return Entry{Key: k, Amount: l.Bets[k]}
	})
	return nil
}

// BeginRound clears the undo history.
func (l *Ledger) BeginRound() {
	l.History = nil
	l.Cancelled = nil
}

// SettleSnapshot records the current bets as the repeatable snapshot.
func (l *Ledger) SettleSnapshot() {
	l.ensure()
	l.LastSettled = l.Bets.Clone()
	l.Cancelled = nil
}

// Clear zeroes every bet and drops the history. The snapshot is kept.
func (l *Ledger) Clear() {
	l.Bets = NewBetMap()
	l.History = nil
	l.Cancelled = nil
}

// Total is the current round stake.
func (l *Ledger) Total() decimal.Decimal {
	if l.Bets == nil {
		return decimal.Zero
	}
	return l.Bets.Total()
}
