package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositive     = errors.New("bet must be greater than zero")
	ErrNotFinite       = errors.New("bet must be a finite number")
	ErrBelowMinimum    = errors.New("bet below minimum")
	ErrAboveMaximum    = errors.New("bet above maximum")
	ErrUnknownKey      = errors.New("unknown bet key")
	ErrNothingToCancel = errors.New("no bet to cancel")
	ErrNothingToRepeat = errors.New("no settled bet to repeat")
)

// Limits bound a single stake. A zero Max means unbounded.
type Limits struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Unit string
}

// LimitsFrom converts per-game configuration into Limits.
func LimitsFrom(g config.GameConfig) Limits {
	return Limits{
		Min:  decimal.NewFromFloat(g.MinStake),
		Max:  decimal.NewFromFloat(g.MaxStake),
		Unit: g.Unit,
	}
}

// Validate checks amount against limits and returns it as a decimal.
// The minimum itself is accepted.
func Validate(amount float64, limits Limits) (decimal.Decimal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero, ErrNotFinite
	}
	if amount <= 0 {
		return decimal.Zero, ErrNonPositive
	}
	d := decimal.NewFromFloat(amount)
	return d, ValidateDecimal(d, limits)
}

// ValidateDecimal is Validate for amounts that are already decimals.
func ValidateDecimal(d decimal.Decimal, limits Limits) error {
	if !d.IsPositive() {
		return ErrNonPositive
	}
	if d.LessThan(limits.Min) {
		return fmt.Errorf("%w: %s < %s %s", ErrBelowMinimum, d, limits.Min, limits.Unit)
	}
	if limits.Max.IsPositive() && d.GreaterThan(limits.Max) {
		return fmt.Errorf("%w: %s > %s %s", ErrAboveMaximum, d, limits.Max, limits.Unit)
	}
	return nil
}
