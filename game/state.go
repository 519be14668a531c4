package game

// RoundState is the lifecycle of one round for one (player, game).
type RoundState string

const (
	StateIdle       RoundState = "idle"
	StateCommitting RoundState = "committing"
	StateResolved   RoundState = "resolved"
	StatePlayerTurn RoundState = "player_turn"
	StateSettling   RoundState = "settling"
	StateSettled    RoundState = "settled"
	StateFailed     RoundState = "failed"
)

var transitions = map[RoundState][]RoundState{
	StateIdle:       {StateCommitting},
	StateCommitting: {StateResolved, StateIdle, StateFailed},
	StateResolved:   {StatePlayerTurn, StateSettling, StateIdle, StateFailed},
	StatePlayerTurn: {StatePlayerTurn, StateSettling, StateFailed},
	StateSettling:   {StateSettled, StateFailed},
	StateSettled:    {StateIdle},
	StateFailed:     {StateIdle},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to RoundState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InFlight reports whether a round is holding the (player, game) slot.
// A settled or failed round still blocks new plays until it is reset.
func (s RoundState) InFlight() bool {
	return s != StateIdle && s != ""
}
