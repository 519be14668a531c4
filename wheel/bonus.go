package wheel

import (
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/shopspring/decimal"
)

// CoinSide is a Coin Flip bonus side.
type CoinSide string

const (
	Red  CoinSide = "red"
	Blue CoinSide = "blue"
)

// BonusResult is the sub-resolution of a bonus segment.
type BonusResult struct {
	Bonus      ledger.Bonus `json:"bonus"`
	Multiplier int          `json:"multiplier"`
	Side       CoinSide     `json:"side,omitempty"`
	Red        int          `json:"red,omitempty"`
	Blue       int          `json:"blue,omitempty"`
	Slot       int          `json:"slot,omitempty"`
	Candidates []int        `json:"candidates,omitempty"`
	Picked     int          `json:"picked,omitempty"`
}

// ResolveBonus runs the bonus game for b.
func ResolveBonus(src rng.Source, b ledger.Bonus, t Table) (BonusResult, error) {
	res := BonusResult{Bonus: b}
	switch b {
	case ledger.BonusCoinFlip:
		res.Red = rng.Pick(src, t.CoinFlip)
		res.Blue = rng.Pick(src, t.CoinFlip)
		res.Side, res.Multiplier = Red, res.Red
		if src.Float64() >= 0.5 {
			res.Side, res.Multiplier = Blue, res.Blue
		}
	case ledger.BonusPachinko:
		res.Slot = src.IntN(len(t.Pachinko))
		res.Multiplier = t.Pachinko[res.Slot]
	case ledger.BonusCashHunt:
		c := t.CashHunt
		res.Candidates = make([]int, c.Candidates)
		for i := range res.Candidates {
			res.Candidates[i] = c.Min + src.IntN(c.Max-c.Min+1)
		}
		res.Picked = src.IntN(len(res.Candidates))
		res.Multiplier = res.Candidates[res.Picked]
	case ledger.BonusCrazyTime:
		res.Multiplier = rng.Pick(src, t.CrazyTime)
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownSegment, b)
	}
	return res, nil
}

// Payout is stake-on-landed-key x multiplier x TopSlot factor. For numbers the
// multiplier is the number itself; bonuses use their sub-resolution.
func Payout(landed Segment, bets ledger.BetMap, top TopSlot, bonus *BonusResult) (decimal.Decimal, string) {
	stake := bets.Stake(landed.Key)
	if !stake.IsPositive() {
		if landed.Key.IsBonus() {
			return decimal.Zero, fmt.Sprintf("You accessed %s, but did not bet on it.", landed.Label())
		}
		return decimal.Zero, "No win this time. Try again!"
	}

	mult := landed.Key.Number
	if landed.Key.IsBonus() {
		if bonus == nil {
			return decimal.Zero, "bonus not resolved"
		}
		mult = bonus.Multiplier
	}
	win := stake.Mul(decimal.NewFromInt(int64(mult * top.Factor(landed.Key))))

	if bonus != nil && bonus.Bonus == ledger.BonusCoinFlip {
		return win, fmt.Sprintf("Coin Flip: %s wins! You won %s!", bonus.Side, win.StringFixed(2))
	}
	return win, fmt.Sprintf("You won %s!", win.StringFixed(2))
}
