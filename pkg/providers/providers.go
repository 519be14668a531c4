package providers

import (
	"context"
	"errors"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/shopspring/decimal"
)

// ErrNoResponse means a collaborator did not answer before its deadline.
// It is distinct from an explicit rejection.
var ErrNoResponse = errors.New("no response from collaborator")

type contextKey string

// TraceIDKey carries the request trace id into provider calls.
const TraceIDKey contextKey = "trace_id"

// StateProvider persists one PlayerState per (player, game)
type StateProvider interface {
	// GetPlayerState returns a fresh idle state when none is stored
	GetPlayerState(ctx context.Context, playerID string, kind game.Kind) (*game.PlayerState, error)
	SavePlayerState(ctx context.Context, state *game.PlayerState) error
}

// StateDeleter is implemented by state stores that can drop a stored state
type StateDeleter interface {
	DeleteState(ctx context.Context, playerID string, kind game.Kind) error
}

// TransferRequest debits a player to the house account
type TransferRequest struct {
	PlayerID string          `json:"playerId"`
	From     string          `json:"from"`
	Amount   decimal.Decimal `json:"amount"`
	Purpose  string          `json:"purpose"`
	RoundID  string          `json:"roundId"`
}

// SettleRequest credits a player from the house account
type SettleRequest struct {
	PlayerID string          `json:"playerId"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Purpose  string          `json:"purpose"`
	RoundID  string          `json:"roundId"`
}

// PaymentProvider moves real value. Neither call is retried by the engine.
type PaymentProvider interface {
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	Transfer(ctx context.Context, req *TransferRequest) (signature string, err error)
	Settle(ctx context.Context, req *SettleRequest) (signature string, err error)
}

// RoundLocker is the cross-instance single-flight guard
type RoundLocker interface {
	// TryLock returns a token when the lock was taken, "" when it is held elsewhere
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RoundLog is one audited round
type RoundLog struct {
	RoundID    string      `json:"roundId"`
	PlayerID   string      `json:"playerId"`
	Username   string      `json:"username"`
	Game       game.Kind   `json:"game"`
	State      string      `json:"state"`
	Stake      string      `json:"stake"`
	Payout     string      `json:"payout"`
	Win        bool        `json:"win"`
	Unpaid     bool        `json:"unpaid,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Message    string      `json:"message,omitempty"`
	Detail     interface{} `json:"detail,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	HouseWins  bool        `json:"houseWins"`
	SettleSig  string      `json:"settleSignature,omitempty"`
	FailReason string      `json:"failReason,omitempty"`
}

// HistoryQuery selects a page of a player's rounds
type HistoryQuery struct {
	PlayerID string    `json:"playerId"`
	Game     game.Kind `json:"game"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// HistoryItem is one round as returned by the log service
type HistoryItem struct {
	RoundID string                 `json:"roundId" mapstructure:"roundId"`
	Time    time.Time              `json:"time" mapstructure:"time"`
	Stake   float64                `json:"stake" mapstructure:"stake"`
	Payout  float64                `json:"payout" mapstructure:"payout"`
	Win     bool                   `json:"win" mapstructure:"win"`
	Unpaid  bool                   `json:"unpaid,omitempty" mapstructure:"unpaid"`
	Detail  map[string]interface{} `json:"detail,omitempty" mapstructure:"detail"`
}

// HistoryResponse is a page of history
type HistoryResponse struct {
	Total int           `json:"total"`
	Items []HistoryItem `json:"items"`
}

// LogProvider records rounds for audit and serves history
type LogProvider interface {
	LogRound(ctx context.Context, log *RoundLog) error
	GetRoundHistory(ctx context.Context, query *HistoryQuery) (*HistoryResponse, error)
}

// ResultEvent is a settled round as shown on the live feed
type ResultEvent struct {
	RoundID  string    `json:"roundId"`
	PlayerID string    `json:"playerId"`
	Username string    `json:"username"`
	Game     game.Kind `json:"game"`
	Stake    string    `json:"stake"`
	Payout   string    `json:"payout"`
	Win      bool      `json:"win"`
	Label    string    `json:"label,omitempty"`
	At       time.Time `json:"at"`
}

// ResultPublisher fans settled rounds out to the feed
type ResultPublisher interface {
	PublishResult(ctx context.Context, ev *ResultEvent) error
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	PlayerID      string          `json:"playerId"`
	Username      string          `json:"username"`
	TotalWinnings decimal.Decimal `json:"totalWinnings"`
}

// Leaderboard ranks players by total winnings
type Leaderboard interface {
	Record(ctx context.Context, playerID, username string, winnings decimal.Decimal) error
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
