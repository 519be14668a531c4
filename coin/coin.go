// Package coin is the two-sided coin flip.
package coin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/shopspring/decimal"
)

// Side of the coin.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// ErrInvalidChoice is returned for anything other than heads or tails.
var ErrInvalidChoice = errors.New("choice must be heads or tails")

// ParseSide accepts "heads" or "tails", case-insensitively.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Heads:
		return Heads, nil
	case Tails:
		return Tails, nil
	}
	return "", ErrInvalidChoice
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Heads {
		return Tails
	}
	return Heads
}

// Flip lands on the opposite side when the house is favored.
func Flip(choice Side, houseWins bool) Side {
	if houseWins {
		return choice.Opposite()
	}
	return choice
}

// Toss is the outcome detail.
type Toss struct {
	Choice Side `json:"choice"`
	Result Side `json:"result"`
}

type Module struct {
	cfg config.GameConfig
}

func New(cfg *config.Config) (game.Module, error) {
	g, err := game.GameConfigFor(cfg, game.KindCoinFlip)
	if err != nil {
		return nil, err
	}
	return &Module{cfg: g}, nil
}

func (m *Module) Kind() game.Kind { return game.KindCoinFlip }

func (m *Module) GetConfig(ctx context.Context) (game.ConfigNormalizer, error) {
	return game.BaseConfig{
		Kind:       game.KindCoinFlip,
		GameConfig: m.cfg,
		Extra:      map[string]interface{}{"sides": []Side{Heads, Tails}, "win_multiplier": 2},
	}, nil
}

func (m *Module) Resolve(ctx context.Context, req *game.RoundRequest, houseWins bool) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	choice, err := ParseSide(req.Choice)
	if err != nil {
		return nil, err
	}
	result := Flip(choice, houseWins)
	out := &game.Outcome{Payout: decimal.Zero, Detail: Toss{Choice: choice, Result: result}}
	if result == choice {
		out.Win = true
		out.Payout = mc.PlayerState().Stake.Mul(decimal.NewFromInt(2))
		out.Message = fmt.Sprintf("It's %s! You won %s %s!", result, out.Payout.StringFixed(2), m.cfg.Unit)
	} else {
		out.Message = fmt.Sprintf("It's %s. Better luck next time!", result)
	}
	return out, nil
}

// ValidateRequest rejects a bad choice before any stake is taken.
func (m *Module) ValidateRequest(req *game.RoundRequest) error {
	_, err := ParseSide(req.Choice)
	return err
}
