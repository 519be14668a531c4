package wheel

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/shopspring/decimal"
)

// State is the wheel's module data: the session layout and the bet ledger.
type State struct {
	Layout Layout         `json:"layout"`
	Ledger *ledger.Ledger `json:"ledger"`
}

// Spin is the outcome detail of one wheel round.
type Spin struct {
	Index   int          `json:"index"`
	Angle   float64      `json:"angle"`
	Segment Segment      `json:"segment"`
	TopSlot TopSlot      `json:"topSlot"`
	Bonus   *BonusResult `json:"bonus,omitempty"`
	Stake   string       `json:"stake"`
}

// Module is the Crazy Time wheel.
type Module struct {
	cfg   config.GameConfig
	table Table
	base  []Segment
}

// New builds the wheel module, reading tables/wheel.yaml when present.
func New(cfg *config.Config) (game.Module, error) {
	g, err := game.GameConfigFor(cfg, game.KindWheel)
	if err != nil {
		return nil, err
	}
	table, err := game.LoadTableOrDefault(cfg.TablesDir, "wheel", DefaultTable())
	if err != nil {
		return nil, fmt.Errorf("load wheel table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	base, _ := table.Base()
	return &Module{cfg: g, table: table, base: base}, nil
}

func (m *Module) Kind() game.Kind { return game.KindWheel }

func (m *Module) GetConfig(ctx context.Context) (game.ConfigNormalizer, error) {
	return game.BaseConfig{
		Kind:       game.KindWheel,
		GameConfig: m.cfg,
		Extra: map[string]interface{}{
			"segments":      m.table.Segments,
			"segment_count": len(m.base),
			"segment_angle": SegmentAngle(len(m.base)),
			"pointer_angle": PointerAngle,
			"top_slot":      m.table.TopSlot,
			"bet_keys":      ledger.Keys,
		},
	}, nil
}

// load returns the player's wheel state, shuffling a layout on first use.
func (m *Module) load(mc *game.ModuleContext) (*State, error) {
	var st State
	if err := mc.PlayerState().DecodeData(&st); err != nil {
		return nil, err
	}
	if len(st.Layout) != len(m.base) {
		st.Layout = NewLayout(mc.Source(), m.base)
	}
	if st.Ledger == nil {
		st.Ledger = ledger.New()
	}
	return &st, nil
}

func (m *Module) save(mc *game.ModuleContext, st *State) error {
	return mc.PlayerState().EncodeData(st)
}

// StakeFor is the total of the bet map.
func (m *Module) StakeFor(ctx context.Context, req *game.RoundRequest) (decimal.Decimal, error) {
	mc := game.MustFromContext(ctx)
	st, err := m.load(mc)
	if err != nil {
		return decimal.Zero, err
	}
	if err := m.save(mc, st); err != nil {
		return decimal.Zero, err
	}
	return st.Ledger.Total(), nil
}

// Resolve spins the wheel against the current bets.
func (m *Module) Resolve(ctx context.Context, req *game.RoundRequest, houseWins bool) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	src := mc.Source()
	st, err := m.load(mc)
	if err != nil {
		return nil, err
	}
	st.Ledger.BeginRound()
	bets := st.Ledger.Bets.Clone()

	top := ChooseTopSlot(src, bets, m.table.TopSlot)
	index := PickIndex(src, st.Layout, bets, houseWins)

	spins := m.table.MinSpins
	if m.table.ExtraSpins > 0 {
		spins += src.IntN(m.table.ExtraSpins + 1)
	}
	angle, err := Encode(src, index, len(st.Layout), spins)
	if err != nil {
		return nil, err
	}
	landed, err := Decode(angle, len(st.Layout))
	if err != nil {
		return nil, err
	}
	if landed != index {
		return nil, fmt.Errorf("%w: angle %.4f decoded to %d, picked %d", ErrInvalidAngle, angle, landed, index)
	}

	seg := st.Layout[landed]
	spin := Spin{Index: landed, Angle: angle, Segment: seg, TopSlot: top, Stake: bets.Total().String()}
	if seg.Key.IsBonus() {
		bonus, err := ResolveBonus(src, seg.Key.Bonus, m.table)
		if err != nil {
			return nil, err
		}
		spin.Bonus = &bonus
	}
	payout, msg := Payout(seg, bets, top, spin.Bonus)

	if err := m.save(mc, st); err != nil {
		return nil, err
	}

	mc.Logger.Debug().
		Int("index", landed).
		Str("segment", seg.Label()).
		Bool("house_branch", houseWins).
		Str("payout", payout.String()).
		Msg("wheel resolved")

	return &game.Outcome{
		Win:     payout.IsPositive(),
		Payout:  payout,
		Message: msg,
		Detail:  spin,
	}, nil
}

// OnSettled records the bets for "repeat last bet".
func (m *Module) OnSettled(ctx context.Context) error {
	mc := game.MustFromContext(ctx)
	st, err := m.load(mc)
	if err != nil {
		return err
	}
	st.Ledger.SettleSnapshot()
	return m.save(mc, st)
}

// ResetRound clears the bets and their history; the layout and snapshot stay.
func (m *Module) ResetRound(ctx context.Context) error {
	mc := game.MustFromContext(ctx)
	st, err := m.load(mc)
	if err != nil {
		return err
	}
	st.Ledger.Clear()
	return m.save(mc, st)
}

func (m *Module) PlaceBet(ctx context.Context, key string, amount decimal.Decimal) error {
	k, err := ledger.ParseKey(key)
	if err != nil {
		return err
	}
	return m.mutate(ctx, func(l *ledger.Ledger) error { return l.PlaceBet(k, amount) })
}

func (m *Module) CancelLast(ctx context.Context) error {
	return m.mutate(ctx, func(l *ledger.Ledger) error {
		_, err := l.CancelLast()
		return err
	})
}

func (m *Module) RepeatLast(ctx context.Context) error {
	return m.mutate(ctx, func(l *ledger.Ledger) error { return l.RepeatLast() })
}

func (m *Module) mutate(ctx context.Context, fn func(*ledger.Ledger) error) error {
	mc := game.MustFromContext(ctx)
	st, err := m.load(mc)
	if err != nil {
		return err
	}
	if err := fn(st.Ledger); err != nil {
		return err
	}
	return m.save(mc, st)
}
