package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MemoryStateProvider keeps states in process memory (dev mode, tests).
type MemoryStateProvider struct {
	mu     sync.Mutex
	states map[string][]byte
}

func NewMemoryStateProvider() *MemoryStateProvider {
	return &MemoryStateProvider{states: make(map[string][]byte)}
}

func (p *MemoryStateProvider) GetPlayerState(_ context.Context, playerID string, kind game.Kind) (*game.PlayerState, error) {
	p.mu.Lock()
	data, ok := p.states[stateKey(playerID, kind)]
	p.mu.Unlock()
	if !ok {
		return game.NewPlayerState(playerID, kind), nil
	}
	return game.PlayerStateFromJSON(data)
}

func (p *MemoryStateProvider) SavePlayerState(_ context.Context, state *game.PlayerState) error {
	data, err := state.ToJSON()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[stateKey(state.PlayerID, state.Kind)] = data
	return nil
}

func (p *MemoryStateProvider) DeleteState(_ context.Context, playerID string, kind game.Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, stateKey(playerID, kind))
	return nil
}

// MemoryLocker is a single-process RoundLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
}

type memoryLock struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryLock)}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.locks[key]; ok && time.Now().Before(cur.expires) {
		return "", nil
	}
	token := uuid.New().String()
	l.locks[key] = memoryLock{token: token, expires: time.Now().Add(ttl)}
	return token, nil
}

func (l *MemoryLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.locks[key]; ok && cur.token == token {
		delete(l.locks, key)
	}
	return nil
}

// MemoryLeaderboard ranks players in process memory.
type MemoryLeaderboard struct {
	mu     sync.Mutex
	totals map[string]decimal.Decimal
	names  map[string]string
}

func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{totals: make(map[string]decimal.Decimal), names: make(map[string]string)}
}

func (l *MemoryLeaderboard) Record(_ context.Context, playerID, username string, winnings decimal.Decimal) error {
	if !winnings.IsPositive() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[playerID] = l.totals[playerID].Add(winnings)
	if username != "" {
		l.names[playerID] = username
	}
	return nil
}

func (l *MemoryLeaderboard) Top(_ context.Context, limit int) ([]providers.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := lo.Keys(l.totals)
	sort.Slice(ids, func(i, j int) bool {
		if c := l.totals[ids[i]].Cmp(l.totals[ids[j]]); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return lo.Map(ids, func(id string, i int) providers.LeaderboardEntry {
		return providers.LeaderboardEntry{Rank: i + 1, PlayerID: id, Username: l.names[id], TotalWinnings: l.totals[id]}
	}), nil
}

// MemoryLogProvider keeps audited rounds in memory and serves history from them.
type MemoryLogProvider struct {
	mu   sync.Mutex
	logs []providers.RoundLog
}

func NewMemoryLogProvider() *MemoryLogProvider {
	return &MemoryLogProvider{}
}

func (p *MemoryLogProvider) LogRound(_ context.Context, log *providers.RoundLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logs = append(p.logs, *log)
	return nil
}

// Logs returns a copy of everything logged so far.
func (p *MemoryLogProvider) Logs() []providers.RoundLog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providers.RoundLog(nil), p.logs...)
}

func (p *MemoryLogProvider) GetRoundHistory(_ context.Context, q *providers.HistoryQuery) (*providers.HistoryResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := lo.Filter(p.logs, func(l providers.RoundLog, _ int) bool {
		return l.PlayerID == q.PlayerID && l.Game == q.Game
	})
	total := len(matched)
	matched = lo.Reverse(matched)
	start := q.Page * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	items := lo.Map(matched[start:end], func(l providers.RoundLog, _ int) providers.HistoryItem {
		stake, _ := decimal.NewFromString(l.Stake)
		payout, _ := decimal.NewFromString(l.Payout)
		return providers.HistoryItem{
			RoundID: l.RoundID,
			Time:    l.Timestamp,
			Stake:   stake.InexactFloat64(),
			Payout:  payout.InexactFloat64(),
			Win:     l.Win,
			Unpaid:  l.Unpaid,
		}
	})
	return &providers.HistoryResponse{Total: total, Items: items}, nil
}

// MemoryPaymentProvider simulates wallets for dev mode and tests. Every
// unknown address starts with InitialBalance.
type MemoryPaymentProvider struct {
	mu             sync.Mutex
	InitialBalance decimal.Decimal
	balances       map[string]decimal.Decimal
	house          string
	seq            int

	// TransferErr and SettleErr force failures when set.
	TransferErr error
	SettleErr   error
	Transfers   []providers.TransferRequest
	Settles     []providers.SettleRequest
}

func NewMemoryPaymentProvider(house string, initial decimal.Decimal) *MemoryPaymentProvider {
	return &MemoryPaymentProvider{
		InitialBalance: initial,
		balances:       make(map[string]decimal.Decimal),
		house:          house,
	}
}

func (p *MemoryPaymentProvider) balance(addr string) decimal.Decimal {
	b, ok := p.balances[addr]
	if !ok {
		return p.InitialBalance
	}
	return b
}

func (p *MemoryPaymentProvider) GetBalance(_ context.Context, address string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance(address), nil
}

func (p *MemoryPaymentProvider) Transfer(_ context.Context, req *providers.TransferRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TransferErr != nil {
		return "", p.TransferErr
	}
	from := p.balance(req.From)
	if from.LessThan(req.Amount) {
		return "", fmt.Errorf("%w: insufficient funds", ErrPaymentRejected)
	}
	p.balances[req.From] = from.Sub(req.Amount)
	p.balances[p.house] = p.balance(p.house).Add(req.Amount)
	p.Transfers = append(p.Transfers, *req)
	p.seq++
	return fmt.Sprintf("mem-tx-%d", p.seq), nil
}

func (p *MemoryPaymentProvider) Settle(_ context.Context, req *providers.SettleRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SettleErr != nil {
		return "", p.SettleErr
	}
	p.balances[p.house] = p.balance(p.house).Sub(req.Amount)
	p.balances[req.To] = p.balance(req.To).Add(req.Amount)
	p.Settles = append(p.Settles, *req)
	p.seq++
	return fmt.Sprintf("mem-tx-%d", p.seq), nil
}

// TransferCount returns how many stakes were taken.
func (p *MemoryPaymentProvider) TransferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Transfers)
}
