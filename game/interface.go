package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Module defines what every single-player game implementation provides.
//
// Flow: handler -> session.Service -> Module
//
// ModuleContext is set by the session before any module method runs:
//
//	mc := game.MustFromContext(ctx)
//	state := mc.PlayerState()   // module data lives in state.Data
//	src := mc.Source()          // rng source for this round
type Module interface {
	// Kind returns the unique identifier for this game
	Kind() Kind

	// GetConfig returns the normalized game configuration
	GetConfig(ctx context.Context) (ConfigNormalizer, error)
}

// InstantModule resolves a round in a single step (slots, coin flip, wheel).
type InstantModule interface {
	Module
	Resolve(ctx context.Context, req *RoundRequest, houseWins bool) (*Outcome, error)
}

// TurnModule resolves a round across player actions (card duel).
// Deal returns a Pending outcome while the player may still act.
type TurnModule interface {
	Module
	Deal(ctx context.Context, req *RoundRequest, houseWins bool) (*Outcome, error)
	Hit(ctx context.Context) (*Outcome, error)
	Stand(ctx context.Context) (*Outcome, error)
}

// Staker is implemented by modules whose stake is derived from module state
// (the wheel stakes the sum of its bet map) rather than the request.
type Staker interface {
	StakeFor(ctx context.Context, req *RoundRequest) (decimal.Decimal, error)
}

// Resetter is implemented by modules that clear module data on "play again".
type Resetter interface {
	ResetRound(ctx context.Context) error
}

// Settler is implemented by modules that react once a round is settled
// (the wheel snapshots its bet map for repeat).
type Settler interface {
	OnSettled(ctx context.Context) error
}

// RequestValidator rejects malformed requests before any stake is taken.
type RequestValidator interface {
	ValidateRequest(req *RoundRequest) error
}

// Bettor is implemented by modules that keep a bet map across rounds.
// Keys are the module's own bet key names.
type Bettor interface {
	PlaceBet(ctx context.Context, key string, amount decimal.Decimal) error
	CancelLast(ctx context.Context) error
	RepeatLast(ctx context.Context) error
}

// ModuleFactory is a function that creates a game module from app config
type ModuleFactory func(cfg *config.Config) (Module, error)

// Registry holds registered module factories
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]ModuleFactory
}

// NewRegistry creates a new module registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]ModuleFactory),
	}
}

// Register registers a factory function for a game kind
func (r *Registry) Register(kind Kind, factory ModuleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Get returns the factory for a game kind
func (r *Registry) Get(kind Kind) (ModuleFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[kind]
	return factory, ok
}

// GetAll returns all registered game kinds, sorted
func (r *Registry) GetAll() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := lo.Keys(r.factories)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Build instantiates every registered module.
func (r *Registry) Build(cfg *config.Config) (map[Kind]Module, error) {
	modules := make(map[Kind]Module)
	for _, kind := range r.GetAll() {
		factory, _ := r.Get(kind)
		m, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("build %s module: %w", kind, err)
		}
		modules[kind] = m
	}
	return modules, nil
}
