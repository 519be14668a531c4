// Package pvp speaks the multiplayer poker session server's event contract.
// The remote server owns turn order and the pot; this side only forwards
// intents and proves each wager with a stake transfer.
package pvp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL converts PvP amounts to payment amounts.
const LamportsPerSOL = 1_000_000_000

type EventType string

// Server to player.
const (
	EventWaiting            EventType = "waiting"
	EventWaitingPlayers     EventType = "waitingPlayers"
	EventGameState          EventType = "gameState"
	EventDistributeWinnings EventType = "distributeWinnings"
	EventError              EventType = "error"
)

// Player to server.
const (
	EventJoinGame EventType = "joinGame"
	EventMakeMove EventType = "makeMove"
)

// Envelope frames every message on both sockets.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data under event.
func NewEnvelope(event EventType, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	return json.Unmarshal(e.Data, v)
}

type Waiting struct {
	Message string   `json:"message"`
	Players []string `json:"players"`
}

type WaitingPlayers struct {
	Players []string `json:"players"`
}

// Seat is one player at the table.
type Seat struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Folded  bool   `json:"folded,omitempty"`
}

// GameState is the authoritative table snapshot. Amounts are lamports.
type GameState struct {
	GameID               string              `json:"gameId"`
	Players              []Seat              `json:"players"`
	TableCards           []string            `json:"tableCards"`
	PlayerCards          map[string][]string `json:"playerCards,omitempty"`
	Status               string              `json:"status"`
	Message              string              `json:"message,omitempty"`
	CurrentTurn          string              `json:"currentTurn,omitempty"`
	Pot                  int64               `json:"pot"`
	CurrentBet           int64               `json:"currentBet"`
	PlayerBets           map[string]int64    `json:"playerBets,omitempty"`
	GamePhase            string              `json:"gamePhase"`
	OpponentCardsVisible bool                `json:"opponentCardsVisible,omitempty"`
	DealerMessage        string              `json:"dealerMessage,omitempty"`
	TimeLeft             int                 `json:"timeLeft"`
}

// Committed is what address already has in the pot this betting round.
func (g *GameState) Committed(address string) int64 {
	if g == nil {
		return 0
	}
	return g.PlayerBets[address]
}

type DistributeWinnings struct {
	WinnerAddress string `json:"winnerAddress"`
	Amount        int64  `json:"amount"`
}

// JoinGame asks for a seat. Signature proves the buy-in transfer.
type JoinGame struct {
	PlayerAddress string `json:"playerAddress"`
	BetAmount     int64  `json:"betAmount"`
	Signature     string `json:"signature,omitempty"`
}

type Move string

const (
	MoveFold  Move = "fold"
	MoveCheck Move = "check"
	MoveCall  Move = "call"
	MoveBet   Move = "bet"
	MoveRaise Move = "raise"
)

var ErrInvalidMove = errors.New("move must be fold, check, call, bet or raise")

func ParseMove(s string) (Move, error) {
	switch m := Move(strings.ToLower(strings.TrimSpace(s))); m {
	case MoveFold, MoveCheck, MoveCall, MoveBet, MoveRaise:
		return m, nil
	}
	return "", ErrInvalidMove
}

// Wagers reports whether the move puts new chips in and needs a stake proof.
func (m Move) Wagers() bool {
	return m == MoveBet || m == MoveRaise
}

// MakeMove is a turn intent. Amount is the player's total for the round.
type MakeMove struct {
	GameID    string `json:"gameId"`
	Move      Move   `json:"move"`
	Amount    int64  `json:"amount,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// ErrorEvent reports a refused intent back to the player.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToSOL converts lamports to the payment unit.
func ToSOL(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).Div(decimal.NewFromInt(LamportsPerSOL))
}
