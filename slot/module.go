package slot

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
)

// Spin is the outcome detail returned to the player.
type Spin struct {
	Grid Grid `json:"grid"`
	Evaluation
}

// Module is the meme slot game.
type Module struct {
	cfg      config.GameConfig
	resolver *Resolver
}

// New builds the slot module, reading tables/slots.yaml when present.
func New(cfg *config.Config) (game.Module, error) {
	g, err := game.GameConfigFor(cfg, game.KindSlots)
	if err != nil {
		return nil, err
	}
	table, err := game.LoadTableOrDefault(cfg.TablesDir, "slots", DefaultTable())
	if err != nil {
		return nil, fmt.Errorf("load slot table: %w", err)
	}
	resolver, err := NewResolver(table)
	if err != nil {
		return nil, err
	}
	return &Module{cfg: g, resolver: resolver}, nil
}

func (m *Module) Kind() game.Kind { return game.KindSlots }

func (m *Module) GetConfig(ctx context.Context) (game.ConfigNormalizer, error) {
	t := m.resolver.Table()
	return game.BaseConfig{
		Kind:       game.KindSlots,
		GameConfig: m.cfg,
		Extra: map[string]interface{}{
			"rows":         Rows,
			"cols":         Cols,
			"paylines":     Paylines,
			"symbols":      t.Symbols,
			"pays":         t.Pays,
			"bonus_factor": t.BonusFactor,
		},
	}, nil
}

// Resolve spins once. The payout always comes from evaluating the final grid.
func (m *Module) Resolve(ctx context.Context, req *game.RoundRequest, houseWins bool) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	stake := mc.PlayerState().Stake

	grid := m.resolver.Generate(mc.Source(), houseWins)
	ev := m.resolver.Evaluate(grid, stake)

	out := &game.Outcome{
		Win:    ev.Payout.IsPositive(),
		Payout: ev.Payout,
		Detail: Spin{Grid: grid, Evaluation: ev},
	}
	if out.Win {
		out.Message = fmt.Sprintf("Jackpot! You won %s %s!", ev.Payout.StringFixed(2), m.cfg.Unit)
	} else {
		out.Message = "No luck this time. Spin again!"
	}

	mc.Logger.Debug().
		Bool("house_branch", houseWins).
		Ints("lines", ev.Lines).
		Str("payout", ev.Payout.String()).
		Msg("slot resolved")

	return out, nil
}
