package session

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Digital-Creators-Team/casino-engine/coin"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
)

// SimulationReport summarizes a run of automated rounds.
type SimulationReport struct {
	Kind   game.Kind       `json:"kind"`
	Rounds int             `json:"rounds"`
	Wins   int             `json:"wins"`
	Failed int             `json:"failed"`
	Staked decimal.Decimal `json:"staked"`
	Paid   decimal.Decimal `json:"paid"`
}

// RTP is paid over staked; zero when nothing was staked.
func (r *SimulationReport) RTP() decimal.Decimal {
	if r.Staked.IsZero() {
		return decimal.Zero
	}
	return r.Paid.Div(r.Staked)
}

// HitRate is the share of settled rounds that paid out.
func (r *SimulationReport) HitRate() float64 {
	settled := r.Rounds - r.Failed
	if settled <= 0 {
		return 0
	}
	return float64(r.Wins) / float64(settled)
}

// Simulate plays rounds of kind for player through the full round pipeline
// and tallies what was staked and paid. Refused rounds are counted as failed.
// The wheel stakes everything on the 1 segment; card duel always stands.
func (s *Service) Simulate(ctx context.Context, player *game.Player, kind game.Kind, rounds int, stake decimal.Decimal) (*SimulationReport, error) {
	if _, ok := s.modules[kind]; !ok {
		return nil, fmt.Errorf("game %s is not available", kind)
	}
	report := &SimulationReport{Kind: kind, Staked: decimal.Zero, Paid: decimal.Zero}
	one := ledger.Number(1).String()

	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Rounds++

		var (
			result *RoundResult
			err    error
		)
		switch kind {
		case game.KindWheel:
			if _, err = s.PlaceBet(ctx, player, kind, one, stake.InexactFloat64()); err == nil {
				result, err = s.Play(ctx, player, kind, nil)
			}
		case game.KindCardDuel:
			result, err = s.Deal(ctx, player, kind, &game.RoundRequest{Stake: stake})
			if err == nil && result.State == game.StatePlayerTurn {
				result, err = s.Stand(ctx, player, kind)
			}
		case game.KindCoinFlip:
			side := coin.Heads
			if i%2 == 1 {
				side = coin.Tails
			}
			result, err = s.Play(ctx, player, kind, &game.RoundRequest{Stake: stake, Choice: string(side)})
		default:
			result, err = s.Play(ctx, player, kind, &game.RoundRequest{Stake: stake})
		}

		if err != nil {
			report.Failed++
			s.logger.Debug().Err(err).Int("round", i).Msg("simulated round refused")
		} else {
			report.Staked = report.Staked.Add(result.Stake)
			if result.Outcome != nil && result.Outcome.Payout.IsPositive() {
				report.Wins++
				report.Paid = report.Paid.Add(result.Outcome.Payout)
			}
		}

		state, serr := s.State(ctx, player.ID, kind)
		if serr != nil {
			return report, serr
		}
		if state.State == game.StateSettled || state.State == game.StateFailed {
			if _, err := s.Reset(ctx, player, kind); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}
