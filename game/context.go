package game

import (
	"context"

	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/rs/zerolog"
)

// ModuleContext gives a module access to the round it is resolving.
// The session sets it; use game.MustFromContext(ctx) inside module methods.
type ModuleContext struct {
	player *Player

	// Logger for logging (always available)
	Logger zerolog.Logger

	source rng.Source

	// Since playerState is a pointer, module edits are saved with the round.
	playerState *PlayerState
}

// NewModuleContext creates a new ModuleContext
func NewModuleContext(player *Player, logger zerolog.Logger, source rng.Source, state *PlayerState) *ModuleContext {
	if source == nil {
		source = rng.Default()
	}
	return &ModuleContext{
		player:      player,
		Logger:      logger,
		source:      source,
		playerState: state,
	}
}

// Player returns the current player (may be nil in offline simulations)
func (mc *ModuleContext) Player() *Player {
	return mc.player
}

// Source returns the entropy for this round
func (mc *ModuleContext) Source() rng.Source {
	return mc.source
}

// PlayerState returns the state of the round being resolved
func (mc *ModuleContext) PlayerState() *PlayerState {
	return mc.playerState
}

// WithContext attaches ModuleContext to a context
func WithContext(ctx context.Context, mc *ModuleContext) context.Context {
	return context.WithValue(ctx, contextKeyModuleContext, mc)
}

// FromContext extracts ModuleContext from context, nil if absent
func FromContext(ctx context.Context) *ModuleContext {
	if mc, ok := ctx.Value(contextKeyModuleContext).(*ModuleContext); ok {
		return mc
	}
	return nil
}

// MustFromContext extracts ModuleContext from context, panics if not found
func MustFromContext(ctx context.Context) *ModuleContext {
	mc := FromContext(ctx)
	if mc == nil {
		panic("ModuleContext not found in context - this should not happen in game module methods")
	}
	return mc
}

type contextKey string

const contextKeyModuleContext contextKey = "module_context"
