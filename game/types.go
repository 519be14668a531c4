package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/shopspring/decimal"
)

// MaxLastResults caps the per-game recent results ring.
const MaxLastResults = 10

// Outcome is what a module produces for one resolution step.
type Outcome struct {
	Win     bool            `json:"win"`
	Push    bool            `json:"push,omitempty"`
	Payout  decimal.Decimal `json:"payout"`
	Message string          `json:"message,omitempty"`
	// Pending is set while the round waits on player input (card duel turn).
	Pending bool        `json:"pending,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// RoundRequest carries the player's inputs for a play action.
type RoundRequest struct {
	Stake  decimal.Decimal        `json:"stake"`
	Choice string                 `json:"choice,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Stats are cumulative per (player, game) and survive resets.
type Stats struct {
	Spins         int             `json:"spins"`
	Wins          int             `json:"wins"`
	TotalWinnings decimal.Decimal `json:"totalWinnings"`
}

// Add folds another counter set into s.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Spins:         s.Spins + o.Spins,
		Wins:          s.Wins + o.Wins,
		TotalWinnings: s.TotalWinnings.Add(o.TotalWinnings),
	}
}

// ResultSummary is one entry of the recent results ring.
type ResultSummary struct {
	RoundID string          `json:"roundId"`
	Stake   decimal.Decimal `json:"stake"`
	Payout  decimal.Decimal `json:"payout"`
	Win     bool            `json:"win"`
	Label   string          `json:"label,omitempty"`
	Unpaid  bool            `json:"unpaid,omitempty"`
	At      time.Time       `json:"at"`
}

// PlayerState represents the current state of a player in a game
type PlayerState struct {
	PlayerID  string          `json:"playerId"`
	Kind      Kind            `json:"kind"`
	State     RoundState      `json:"state"`
	RoundID   string          `json:"roundId,omitempty"`
	Stake     decimal.Decimal `json:"stake"`
	Signature string          `json:"signature,omitempty"`
	Outcome   *Outcome        `json:"outcome,omitempty"`
	// Unpaid marks a won round whose settlement transfer failed.
	Unpaid      bool            `json:"unpaid,omitempty"`
	Message     string          `json:"message,omitempty"`
	Stats       Stats           `json:"stats"`
	LastResults []ResultSummary `json:"lastResults,omitempty"`
	// Data is module-owned state (wheel layout and bets, card hands).
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewPlayerState creates a new idle player state
func NewPlayerState(playerID string, kind Kind) *PlayerState {
	return &PlayerState{
		PlayerID:  playerID,
		Kind:      kind,
		State:     StateIdle,
		Stake:     decimal.Zero,
		Stats:     Stats{TotalWinnings: decimal.Zero},
		UpdatedAt: time.Now(),
	}
}

// Transition moves the round to next, rejecting illegal moves.
func (p *PlayerState) Transition(next RoundState) error {
	from := p.State
	if from == "" {
		from = StateIdle
	}
	if !CanTransition(from, next) {
		return fmt.Errorf("illegal round transition %s -> %s", from, next)
	}
	p.State = next
	p.UpdatedAt = time.Now()
	return nil
}

// Reset clears round-scoped fields and keeps statistics, recent results and module data.
func (p *PlayerState) Reset() {
	p.State = StateIdle
	p.RoundID = ""
	p.Stake = decimal.Zero
	p.Signature = ""
	p.Outcome = nil
	p.Unpaid = false
	p.Message = ""
	p.UpdatedAt = time.Now()
}

// PushResult prepends r to LastResults, keeping at most MaxLastResults.
func (p *PlayerState) PushResult(r ResultSummary) {
	p.LastResults = append([]ResultSummary{r}, p.LastResults...)
	if len(p.LastResults) > MaxLastResults {
		p.LastResults = p.LastResults[:MaxLastResults]
	}
}

// DecodeData unmarshals module data into v. Empty data leaves v untouched.
func (p *PlayerState) DecodeData(v interface{}) error {
	if len(p.Data) == 0 {
		return nil
	}
	return json.Unmarshal(p.Data, v)
}

// EncodeData stores v as module data.
func (p *PlayerState) EncodeData(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.Data = data
	return nil
}

// ToJSON serializes PlayerState to JSON
func (p *PlayerState) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// PlayerStateFromJSON deserializes PlayerState from JSON
func PlayerStateFromJSON(data []byte) (*PlayerState, error) {
	var state PlayerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.State == "" {
		state.State = StateIdle
	}
	return &state, nil
}

// Player represents player information
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	// Address is the wallet the payment collaborator settles to.
	Address string `json:"address"`
}

// ConfigNormalizer exposes normalized config for responses.
type ConfigNormalizer interface {
	Normalize() map[string]interface{}
}

// BaseConfig is the normalized view shared by every module; Extra carries
// module-specific tables.
type BaseConfig struct {
	Kind Kind
	config.GameConfig
	Extra map[string]interface{}
}

// Normalize implements ConfigNormalizer.
func (b BaseConfig) Normalize() map[string]interface{} {
	out := map[string]interface{}{
		"kind":         b.Kind,
		"house_chance": b.HouseChance,
		"min_stake":    b.MinStake,
		"max_stake":    b.MaxStake,
		"unit":         b.Unit,
	}
	for k, v := range b.Extra {
		out[k] = v
	}
	return out
}

// GameConfigFor returns the tunables for kind, failing when none are configured.
func GameConfigFor(cfg *config.Config, kind Kind) (config.GameConfig, error) {
	g, ok := cfg.Game(string(kind))
	if !ok {
		return config.GameConfig{}, fmt.Errorf("no configuration for game %s", kind)
	}
	if err := rng.Validate(g.HouseChance); err != nil {
		return config.GameConfig{}, fmt.Errorf("game %s: %w", kind, err)
	}
	return g, nil
}
