package cards

import (
	"context"
	"errors"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/shopspring/decimal"
)

var (
	ErrNotPlayerTurn = errors.New("not the player's turn")
	ErrBust          = errors.New("hand is bust")
)

// Table is the duel persisted in PlayerState.Data between actions.
type Table struct {
	Player    Hand   `json:"player"`
	Dealer    Hand   `json:"dealer"`
	FavorHigh bool   `json:"favorHigh"`
	Done      bool   `json:"done"`
	Result    Result `json:"result,omitempty"`
}

// View is what the player sees. The dealer's hole card stays hidden until the turn ends.
type View struct {
	Player      Hand   `json:"player"`
	PlayerScore int    `json:"playerScore"`
	Dealer      Hand   `json:"dealer"`
	DealerScore int    `json:"dealerScore"`
	Hidden      int    `json:"hiddenCards,omitempty"`
	Result      Result `json:"result,omitempty"`
}

func (t *Table) view() View {
	v := View{Player: t.Player, PlayerScore: t.Player.Score(), Result: t.Result}
	if t.Done || len(t.Dealer) == 0 {
		v.Dealer = t.Dealer
	} else {
		v.Dealer = t.Dealer[:1]
		v.Hidden = len(t.Dealer) - 1
	}
	v.DealerScore = v.Dealer.Score()
	return v
}

// Module is the card duel game.
type Module struct {
	cfg config.GameConfig
}

// New builds the card duel module.
func New(cfg *config.Config) (game.Module, error) {
	g, err := game.GameConfigFor(cfg, game.KindCardDuel)
	if err != nil {
		return nil, err
	}
	return &Module{cfg: g}, nil
}

func (m *Module) Kind() game.Kind { return game.KindCardDuel }

func (m *Module) GetConfig(ctx context.Context) (game.ConfigNormalizer, error) {
	return game.BaseConfig{
		Kind:       game.KindCardDuel,
		GameConfig: m.cfg,
		Extra:      map[string]interface{}{"dealer_stands_on": DealerStandsOn, "opening_cards": 2},
	}, nil
}

// Deal opens a round: two uniform cards for the player, two for the dealer
// drawn high when the house is favored.
func (m *Module) Deal(ctx context.Context, req *game.RoundRequest, houseWins bool) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	src := mc.Source()

	t := &Table{FavorHigh: houseWins}
	for i := 0; i < 2; i++ {
		t.Player = append(t.Player, Draw(src, false))
		t.Dealer = append(t.Dealer, Draw(src, houseWins))
	}
	if err := mc.PlayerState().EncodeData(t); err != nil {
		return nil, err
	}

	mc.Logger.Debug().
		Int("player_score", t.Player.Score()).
		Bool("favor_high", houseWins).
		Msg("cards dealt")

	return &game.Outcome{Pending: true, Payout: decimal.Zero, Message: "Hit or stand?", Detail: t.view()}, nil
}

// Hit draws one card for the player. A bust ends the round at once.
func (m *Module) Hit(ctx context.Context) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	t, err := m.load(mc)
	if err != nil {
		return nil, err
	}
	if t.Player.Bust() {
		return nil, ErrBust
	}

	t.Player = append(t.Player, Draw(mc.Source(), false))
	if !t.Player.Bust() {
		if err := mc.PlayerState().EncodeData(t); err != nil {
			return nil, err
		}
		return &game.Outcome{Pending: true, Payout: decimal.Zero, Message: "Hit or stand?", Detail: t.view()}, nil
	}
	return m.finish(mc, t)
}

// Stand lets the dealer draw to 17 and resolves the duel.
func (m *Module) Stand(ctx context.Context) (*game.Outcome, error) {
	mc := game.MustFromContext(ctx)
	t, err := m.load(mc)
	if err != nil {
		return nil, err
	}
	t.Dealer = DealerPlay(mc.Source(), t.Dealer, t.FavorHigh)
	return m.finish(mc, t)
}

func (m *Module) load(mc *game.ModuleContext) (*Table, error) {
	var t Table
	if err := mc.PlayerState().DecodeData(&t); err != nil {
		return nil, err
	}
	if len(t.Player) == 0 || t.Done {
		return nil, ErrNotPlayerTurn
	}
	return &t, nil
}

func (m *Module) finish(mc *game.ModuleContext, t *Table) (*game.Outcome, error) {
	t.Done = true
	t.Result = Resolve(t.Player, t.Dealer)
	if err := mc.PlayerState().EncodeData(t); err != nil {
		return nil, err
	}

	stake := mc.PlayerState().Stake
	out := &game.Outcome{Payout: decimal.Zero, Detail: t.view()}
	switch {
	case t.Result == PlayerWins:
		out.Win = true
		out.Payout = stake.Mul(decimal.NewFromInt(2))
		out.Message = "You win!"
	case t.Result == Push:
		out.Push = true
		out.Payout = stake
		out.Message = "Push, stake returned"
	case t.Player.Bust():
		out.Message = "Bust! Dealer wins"
	default:
		out.Message = "Dealer wins"
	}
	return out, nil
}

// ResetRound discards the hands.
func (m *Module) ResetRound(ctx context.Context) error {
	mc := game.MustFromContext(ctx)
	mc.PlayerState().Data = nil
	return nil
}
