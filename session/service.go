// Package session runs game rounds: it takes the stake, asks the module for
// an outcome and pays the player, keeping one round in flight per
// (player, game).
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Digital-Creators-Team/casino-engine/cards"
	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/logging"
	"github.com/Digital-Creators-Team/casino-engine/missions"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
	"github.com/Digital-Creators-Team/casino-engine/rng"
)

// Player-facing messages for failed rounds.
const (
	MsgStakeFailed   = "Bet failed. Try again."
	MsgInvalidResult = "Invalid result. Please try again."
	MsgUnpaid        = "You won, but prize distribution failed. Contact support."
	MsgStranded      = "Your bet was taken but the round could not be saved. Contact support."
)

// RoundResult is what a play action returns to the player.
type RoundResult struct {
	RoundID         string          `json:"roundId"`
	Kind            game.Kind       `json:"kind"`
	State           game.RoundState `json:"state"`
	Stake           decimal.Decimal `json:"stake"`
	Outcome         *game.Outcome   `json:"outcome"`
	Signature       string          `json:"signature,omitempty"`
	SettleSignature string          `json:"settleSignature,omitempty"`
	Unpaid          bool            `json:"unpaid,omitempty"`
	// ErrorCode is set when the round stands but something after it failed.
	ErrorCode int               `json:"errorCode,omitempty"`
	Message   string            `json:"message"`
	Stats     game.Stats        `json:"stats"`
	Missions  []missions.Notice `json:"missions,omitempty"`
}

// PlayerStats aggregates statistics across every single-player game.
type PlayerStats struct {
	Total  game.Stats               `json:"total"`
	ByGame map[game.Kind]game.Stats `json:"byGame"`
}

// Service orchestrates rounds.
//
// Flow: handler -> session.Service -> game.Module
//
// A round:
// 1. Validates the request and takes the single-flight locks
// 2. Commits the stake through the PaymentProvider
// 3. Draws the house branch and resolves through the module
// 4. Settles the payout; a failed settlement leaves the round unpaid
// 5. Audits, publishes and updates statistics
type Service struct {
	cfg       *config.Config
	modules   map[game.Kind]game.Module
	states    providers.StateProvider
	payment   providers.PaymentProvider
	locker    providers.RoundLocker
	logs      providers.LogProvider
	publisher providers.ResultPublisher
	board     providers.Leaderboard
	tracker   *missions.Tracker
	unpaid    reconcile.Store
	source    rng.Source
	locks     *Locks
	logger    zerolog.Logger
}

// NewService creates the round orchestrator. locker, logs, publisher, board,
// tracker and unpaid may be nil.
func NewService(
	cfg *config.Config,
	modules map[game.Kind]game.Module,
	states providers.StateProvider,
	payment providers.PaymentProvider,
	locker providers.RoundLocker,
	logs providers.LogProvider,
	publisher providers.ResultPublisher,
	board providers.Leaderboard,
	tracker *missions.Tracker,
	unpaid reconcile.Store,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		modules:   modules,
		states:    states,
		payment:   payment,
		locker:    locker,
		logs:      logs,
		publisher: publisher,
		board:     board,
		tracker:   tracker,
		unpaid:    unpaid,
		source:    rng.Default(),
		locks:     NewLocks(),
		logger:    logging.WithComponent(logger, "session"),
	}
}

// WithSource replaces the entropy source (simulations and tests).
func (s *Service) WithSource(src rng.Source) *Service {
	s.source = src
	return s
}

// round is one locked (player, game) slot.
type round struct {
	player *game.Player
	kind   game.Kind
	module game.Module
	gcfg   config.GameConfig
	state  *game.PlayerState
	ctx    context.Context
	logger zerolog.Logger
	unlock func()
}

func lockKey(playerID string, kind game.Kind) string {
	return fmt.Sprintf("%s:%s", playerID, kind)
}

// acquire takes both locks and loads the state. The caller must call unlock.
func (s *Service) acquire(ctx context.Context, player *game.Player, kind game.Kind) (*round, error) {
	if player == nil || player.ID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "player is required")
	}
	module, ok := s.modules[kind]
	if !ok {
		return nil, errors.New(errors.ErrGameModuleNotFound, fmt.Sprintf("game %s is not available", kind))
	}
	gcfg, err := game.GameConfigFor(s.cfg, kind)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigError, "game is not configured")
	}

	release, err := s.lock(ctx, lockKey(player.ID, kind))
	if err != nil {
		return nil, err
	}

	state, err := s.states.GetPlayerState(ctx, player.ID, kind)
	if err != nil {
		release()
		return nil, errors.Wrap(err, errors.ErrPlayerStateError, "failed to get player state")
	}
	return s.newRound(ctx, player, kind, module, gcfg, state, release), nil
}

// lock takes the in-process lock, then the shared one.
func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	if !s.locks.TryAcquire(key) {
		return nil, errors.New(errors.ErrRoundInProgress, "a round is already in progress")
	}
	release := func() { s.locks.Release(key) }
	if s.locker == nil {
		return release, nil
	}

	token, err := s.locker.TryLock(ctx, key, s.cfg.Redis.LockTTL)
	if err != nil {
		release()
		return nil, errors.Wrap(err, errors.ErrRedisError, "failed to take round lock")
	}
	if token == "" {
		release()
		return nil, errors.New(errors.ErrRoundInProgress, "a round is already in progress")
	}
	return func() {
		// Unlock outlives the request context.
		if err := s.locker.Unlock(context.Background(), key, token); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to release round lock")
		}
		release()
	}, nil
}

func (s *Service) newRound(ctx context.Context, player *game.Player, kind game.Kind, module game.Module, gcfg config.GameConfig, state *game.PlayerState, release func()) *round {
	logger := logging.WithGameKind(logging.WithPlayerID(s.logger, player.ID), string(kind))
	return &round{
		player: player,
		kind:   kind,
		module: module,
		gcfg:   gcfg,
		state:  state,
		ctx:    game.WithContext(ctx, game.NewModuleContext(player, logger, s.source, state)),
		logger: logger,
		unlock: release,
	}
}

func (s *Service) save(ctx context.Context, state *game.PlayerState) error {
	if err := s.states.SavePlayerState(ctx, state); err != nil {
		return errors.Wrap(err, errors.ErrPlayerStateError, "failed to save player state")
	}
	return nil
}

// Play runs a whole round of an instant game (slots, coin flip, wheel).
func (s *Service) Play(ctx context.Context, player *game.Player, kind game.Kind, req *game.RoundRequest) (*RoundResult, error) {
	r, err := s.acquire(ctx, player, kind)
	if err != nil {
		return nil, err
	}
	defer r.unlock()

	if req == nil {
		req = &game.RoundRequest{}
	}
	module, ok := r.module.(game.InstantModule)
	if !ok {
		return nil, errors.New(errors.ErrIllegalAction, fmt.Sprintf("%s is not played in one step", kind))
	}
	if err := s.commit(r, req); err != nil {
		return nil, err
	}

	houseWins := rng.Decide(s.source, r.gcfg.HouseChance)
	outcome, err := module.Resolve(r.ctx, req, houseWins)
	if err != nil {
		return nil, s.abandon(r, err)
	}
	return s.settle(r, outcome, houseWins)
}

// Deal commits the stake and deals a card duel. The round waits in
// player_turn for Hit or Stand.
func (s *Service) Deal(ctx context.Context, player *game.Player, kind game.Kind, req *game.RoundRequest) (*RoundResult, error) {
	r, err := s.acquire(ctx, player, kind)
	if err != nil {
		return nil, err
	}
	defer r.unlock()

	if req == nil {
		req = &game.RoundRequest{}
	}
	module, ok := r.module.(game.TurnModule)
	if !ok {
		return nil, errors.New(errors.ErrIllegalAction, fmt.Sprintf("%s has no player turns", kind))
	}
	if err := s.commit(r, req); err != nil {
		return nil, err
	}

	houseWins := rng.Decide(s.source, r.gcfg.HouseChance)
	outcome, err := module.Deal(r.ctx, req, houseWins)
	if err != nil {
		return nil, s.abandon(r, err)
	}
	return s.advance(r, outcome, houseWins)
}

// Hit draws a card for the player.
func (s *Service) Hit(ctx context.Context, player *game.Player, kind game.Kind) (*RoundResult, error) {
	return s.turn(ctx, player, kind, func(m game.TurnModule, ctx context.Context) (*game.Outcome, error) {
		return m.Hit(ctx)
	})
}

// Stand ends the player's turn and resolves the duel.
func (s *Service) Stand(ctx context.Context, player *game.Player, kind game.Kind) (*RoundResult, error) {
	return s.turn(ctx, player, kind, func(m game.TurnModule, ctx context.Context) (*game.Outcome, error) {
		return m.Stand(ctx)
	})
}

func (s *Service) turn(ctx context.Context, player *game.Player, kind game.Kind, act func(game.TurnModule, context.Context) (*game.Outcome, error)) (*RoundResult, error) {
	r, err := s.acquire(ctx, player, kind)
	if err != nil {
		return nil, err
	}
	defer r.unlock()

	module, ok := r.module.(game.TurnModule)
	if !ok {
		return nil, errors.New(errors.ErrIllegalAction, fmt.Sprintf("%s has no player turns", kind))
	}
	if r.state.State != game.StatePlayerTurn {
		return nil, errors.New(errors.ErrIllegalAction, "no hand to play")
	}

	outcome, err := act(module, r.ctx)
	if err != nil {
		if stderrors.Is(err, cards.ErrBust) || stderrors.Is(err, cards.ErrNotPlayerTurn) {
			return nil, errors.Wrap(err, errors.ErrIllegalAction, "action not allowed now")
		}
		return nil, errors.Wrap(err, errors.ErrGameLogicError, "failed to play the turn")
	}
	return s.advance(r, outcome, false)
}

// advance parks a pending outcome in player_turn or settles a final one.
func (s *Service) advance(r *round, outcome *game.Outcome, houseWins bool) (*RoundResult, error) {
	if !outcome.Pending {
		return s.settle(r, outcome, houseWins)
	}
	if err := r.state.Transition(game.StatePlayerTurn); err != nil {
		return nil, errors.Wrap(err, errors.ErrIllegalAction, "action not allowed now")
	}
	r.state.Outcome = outcome
	r.state.Message = outcome.Message
	if err := s.save(r.ctx, r.state); err != nil {
		return nil, s.strand(r, err, r.state.Stake)
	}
	return s.result(r, outcome), nil
}

// commit validates the stake and takes it. On failure the round is back to idle.
func (s *Service) commit(r *round, req *game.RoundRequest) error {
	if r.state.State.InFlight() {
		return errors.New(errors.ErrRoundInProgress, "a round is already in progress")
	}
	if v, ok := r.module.(game.RequestValidator); ok {
		if err := v.ValidateRequest(req); err != nil {
			return errors.NewWithDebug(errors.ErrInvalidBet, "invalid request", err.Error())
		}
	}

	stake := req.Stake
	if st, ok := r.module.(game.Staker); ok {
		total, err := st.StakeFor(r.ctx, req)
		if err != nil {
			return errors.Wrap(err, errors.ErrGameLogicError, "failed to read bets")
		}
		stake = total
	}
	if err := ledger.ValidateDecimal(stake, ledger.LimitsFrom(r.gcfg)); err != nil {
		return errors.NewWithDebug(errors.ErrInvalidBet, "invalid bet", err.Error())
	}

	r.state.RoundID = uuid.NewString()
	r.state.Stake = stake
	if err := r.state.Transition(game.StateCommitting); err != nil {
		return errors.Wrap(err, errors.ErrRoundInProgress, "a round is already in progress")
	}
	if err := s.save(r.ctx, r.state); err != nil {
		return err
	}
	r.logger = logging.WithRoundID(r.logger, r.state.RoundID)

	sig, err := s.payment.Transfer(r.ctx, &providers.TransferRequest{
		PlayerID: r.player.ID,
		From:     r.player.Address,
		Amount:   stake,
		Purpose:  fmt.Sprintf("stake:%s", r.kind),
		RoundID:  r.state.RoundID,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("stake", stake.String()).Msg("stake transfer failed")
		s.audit(r, nil, false, err.Error())
		s.backToIdle(r)
		if stderrors.Is(err, providers.ErrNoResponse) {
			return errors.Wrap(err, errors.ErrPaymentTimeout, MsgStakeFailed)
		}
		return errors.Wrap(err, errors.ErrStakeFailed, MsgStakeFailed)
	}

	r.state.Signature = sig
	if err := r.state.Transition(game.StateResolved); err != nil {
		return errors.Wrap(err, errors.ErrInternalServerError, "failed to record stake")
	}
	if err := s.save(r.ctx, r.state); err != nil {
		return s.strand(r, err, stake)
	}
	return nil
}

// abandon handles a resolver failure after the stake was taken. The stake
// is recorded for reconciliation and the round returns to idle.
func (s *Service) abandon(r *round, cause error) error {
	r.logger.Error().Err(cause).Msg("resolver failed")
	s.audit(r, nil, false, cause.Error())
	s.recordUnpaid(r, r.state.Stake, "invalid result: "+cause.Error())
	s.backToIdle(r)
	return errors.Wrap(cause, errors.ErrInvalidResult, MsgInvalidResult)
}

func (s *Service) backToIdle(r *round) {
	r.state.Reset()
	if err := s.save(context.WithoutCancel(r.ctx), r.state); err != nil {
		r.logger.Error().Err(err).Msg("failed to return round to idle")
	}
}

// strand handles a state write that failed after the stake was taken. owed
// is recorded for reconciliation and the round is parked in failed so Reset
// can clear it. Both writes are best effort.
func (s *Service) strand(r *round, cause error, owed decimal.Decimal) error {
	from := r.state.State
	r.logger.Error().Err(cause).Str("state", string(from)).Msg("round stranded after stake")
	s.audit(r, nil, false, cause.Error())
	s.recordUnpaid(r, owed, fmt.Sprintf("stranded in %s: %v", from, cause))

	if err := r.state.Transition(game.StateFailed); err != nil {
		// settled -> failed is not a normal edge.
		r.state.State = game.StateFailed
	}
	r.state.Message = MsgStranded
	if err := s.save(context.WithoutCancel(r.ctx), r.state); err != nil {
		r.logger.Error().Err(err).Msg("failed to park stranded round")
	}
	return errors.Wrap(cause, errors.ErrPlayerStateError, MsgStranded)
}

// settle pays a resolved round and runs the post-round bookkeeping.
func (s *Service) settle(r *round, outcome *game.Outcome, houseWins bool) (*RoundResult, error) {
	st := r.state
	if err := st.Transition(game.StateSettling); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternalServerError, "failed to settle round")
	}
	st.Outcome = outcome
	st.Message = outcome.Message
	if err := s.save(r.ctx, st); err != nil {
		return nil, s.strand(r, err, st.Stake)
	}

	var settleSig, failReason string
	if outcome.Payout.IsPositive() {
		sig, err := s.payment.Settle(r.ctx, &providers.SettleRequest{
			PlayerID: r.player.ID,
			To:       r.player.Address,
			Amount:   outcome.Payout,
			Purpose:  fmt.Sprintf("payout:%s", r.kind),
			RoundID:  st.RoundID,
		})
		if err != nil {
			r.logger.Error().Err(err).Str("payout", outcome.Payout.String()).Msg("settlement failed")
			failReason = err.Error()
			st.Unpaid = true
			st.Message = MsgUnpaid
			s.recordUnpaid(r, outcome.Payout, "settlement failed: "+err.Error())
		} else {
			settleSig = sig
		}
	}

	if err := st.Transition(game.StateSettled); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternalServerError, "failed to settle round")
	}
	st.Stats.Spins++
	if outcome.Win {
		st.Stats.Wins++
		st.Stats.TotalWinnings = st.Stats.TotalWinnings.Add(outcome.Payout)
	}
	st.PushResult(game.ResultSummary{
		RoundID: st.RoundID,
		Stake:   st.Stake,
		Payout:  outcome.Payout,
		Win:     outcome.Win,
		Label:   outcome.Message,
		Unpaid:  st.Unpaid,
		At:      time.Now().UTC(),
	})
	if settler, ok := r.module.(game.Settler); ok {
		if err := settler.OnSettled(r.ctx); err != nil {
			r.logger.Warn().Err(err).Msg("module settle hook failed")
		}
	}
	if err := s.save(r.ctx, st); err != nil {
		r.logger.Warn().Err(err).Msg("failed to save settled round, retrying")
		if err := s.save(context.WithoutCancel(r.ctx), st); err != nil {
			// Money has moved; only an unsettled payout is still owed.
			owed := decimal.Zero
			if st.Unpaid {
				owed = outcome.Payout
			}
			return nil, s.strand(r, err, owed)
		}
	}

	res := s.result(r, outcome)
	res.SettleSignature = settleSig
	if st.Unpaid {
		res.ErrorCode = errors.ErrSettlementFailed
	}

	s.audit(r, outcome, houseWins, failReason)
	s.publish(r, outcome)
	res.Missions = s.recordMissions(r, outcome)

	r.logger.Info().
		Str("stake", st.Stake.String()).
		Str("payout", outcome.Payout.String()).
		Bool("win", outcome.Win).
		Bool("unpaid", st.Unpaid).
		Msg("round settled")
	return res, nil
}

func (s *Service) result(r *round, outcome *game.Outcome) *RoundResult {
	return &RoundResult{
		RoundID:   r.state.RoundID,
		Kind:      r.kind,
		State:     r.state.State,
		Stake:     r.state.Stake,
		Outcome:   outcome,
		Signature: r.state.Signature,
		Unpaid:    r.state.Unpaid,
		Message:   r.state.Message,
		Stats:     r.state.Stats,
	}
}

func (s *Service) recordUnpaid(r *round, amount decimal.Decimal, reason string) {
	if s.unpaid == nil {
		return
	}
	err := s.unpaid.RecordUnpaid(context.WithoutCancel(r.ctx), reconcile.UnpaidRound{
		RoundID:   r.state.RoundID,
		PlayerID:  r.player.ID,
		Username:  r.player.Username,
		Address:   r.player.Address,
		Game:      r.kind,
		Stake:     r.state.Stake,
		Payout:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to record unpaid round")
	}
}

func (s *Service) audit(r *round, outcome *game.Outcome, houseWins bool, failReason string) {
	if s.logs == nil {
		return
	}
	entry := &providers.RoundLog{
		RoundID:    r.state.RoundID,
		PlayerID:   r.player.ID,
		Username:   r.player.Username,
		Game:       r.kind,
		State:      string(r.state.State),
		Stake:      r.state.Stake.String(),
		Payout:     "0",
		Unpaid:     r.state.Unpaid,
		Signature:  r.state.Signature,
		Timestamp:  time.Now().UTC(),
		HouseWins:  houseWins,
		FailReason: failReason,
	}
	if outcome != nil {
		entry.Payout = outcome.Payout.String()
		entry.Win = outcome.Win
		entry.Message = outcome.Message
		entry.Detail = outcome.Detail
	} else {
		entry.State = string(game.StateFailed)
	}
	if err := s.logs.LogRound(r.ctx, entry); err != nil {
		r.logger.Warn().Err(err).Msg("failed to log round")
	}
}

func (s *Service) publish(r *round, outcome *game.Outcome) {
	if s.publisher != nil {
		err := s.publisher.PublishResult(r.ctx, &providers.ResultEvent{
			RoundID:  r.state.RoundID,
			PlayerID: r.player.ID,
			Username: r.player.Username,
			Game:     r.kind,
			Stake:    r.state.Stake.String(),
			Payout:   outcome.Payout.String(),
			Win:      outcome.Win,
			Label:    outcome.Message,
			At:       time.Now().UTC(),
		})
		if err != nil {
			r.logger.Warn().Err(err).Msg("failed to publish result")
		}
	}
	if s.board != nil && outcome.Win && outcome.Payout.IsPositive() {
		if err := s.board.Record(r.ctx, r.player.ID, r.player.Username, outcome.Payout); err != nil {
			r.logger.Warn().Err(err).Msg("failed to update leaderboard")
		}
	}
}

func (s *Service) recordMissions(r *round, outcome *game.Outcome) []missions.Notice {
	if s.tracker == nil {
		return nil
	}
	notices, err := s.tracker.Record(r.ctx, r.player, r.kind, outcome.Win)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to record mission progress")
	}
	return notices
}

// Reset is "play again": it clears a finished round and keeps statistics.
func (s *Service) Reset(ctx context.Context, player *game.Player, kind game.Kind) (*game.PlayerState, error) {
	r, err := s.acquire(ctx, player, kind)
	if err != nil {
		return nil, err
	}
	defer r.unlock()

	switch r.state.State {
	case game.StateIdle, game.StateSettled, game.StateFailed, "":
	case game.StateCommitting, game.StateResolved, game.StateSettling:
		// We hold the round locks, so the request that left these behind is gone.
		s.recordStranded(r, "reset")
	default:
		return nil, errors.New(errors.ErrRoundInProgress, "a round is still in progress")
	}
	return s.clear(r)
}

func (s *Service) clear(r *round) (*game.PlayerState, error) {
	if resetter, ok := r.module.(game.Resetter); ok {
		if err := resetter.ResetRound(r.ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrGameLogicError, "failed to reset round")
		}
	}
	r.state.Reset()
	if err := s.save(r.ctx, r.state); err != nil {
		return nil, err
	}
	return r.state, nil
}

// recordStranded books the stake of a round found half done. A round that
// already went to reconciliation keeps its first entry.
func (s *Service) recordStranded(r *round, by string) {
	reason := fmt.Sprintf("stranded in %s, cleared by %s", r.state.State, by)
	if r.state.Signature == "" {
		reason += ", no stake signature"
	}
	r.logger = logging.WithRoundID(r.logger, r.state.RoundID)
	r.logger.Warn().Str("state", string(r.state.State)).Msg("clearing stranded round")
	s.recordUnpaid(r, r.state.Stake, reason)
}

// RecoverRound is the operator's way out of a state the player cannot reset:
// a half-done round, an abandoned duel or, with purge, a stored state that no
// longer decodes. Unfinished stakes go to reconciliation. Without purge the
// statistics are kept; purge deletes the stored state.
func (s *Service) RecoverRound(ctx context.Context, playerID string, kind game.Kind, purge bool) (*game.PlayerState, error) {
	if playerID == "" {
		return nil, errors.New(errors.ErrInvalidRequest, "player is required")
	}
	module, ok := s.modules[kind]
	if !ok {
		return nil, errors.New(errors.ErrGameModuleNotFound, fmt.Sprintf("game %s is not available", kind))
	}
	gcfg, err := game.GameConfigFor(s.cfg, kind)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigError, "game is not configured")
	}
	release, err := s.lock(ctx, lockKey(playerID, kind))
	if err != nil {
		return nil, err
	}
	defer release()

	player := &game.Player{ID: playerID}
	state, err := s.states.GetPlayerState(ctx, playerID, kind)
	if err != nil {
		if !purge {
			return nil, errors.Wrap(err, errors.ErrPlayerStateError, "failed to get player state")
		}
		s.logger.Warn().Err(err).Str("player_id", playerID).Str("game_kind", string(kind)).Msg("purging unreadable state")
		return s.purge(ctx, playerID, kind)
	}

	r := s.newRound(ctx, player, kind, module, gcfg, state, release)
	if state.State.InFlight() && state.State != game.StateSettled && state.State != game.StateFailed {
		s.recordStranded(r, "operator")
	}
	if purge {
		return s.purge(ctx, playerID, kind)
	}
	return s.clear(r)
}

func (s *Service) purge(ctx context.Context, playerID string, kind game.Kind) (*game.PlayerState, error) {
	deleter, ok := s.states.(providers.StateDeleter)
	if !ok {
		return nil, errors.New(errors.ErrPlayerStateError, "state store cannot delete states")
	}
	if err := deleter.DeleteState(ctx, playerID, kind); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlayerStateError, "failed to delete player state")
	}
	return game.NewPlayerState(playerID, kind), nil
}

// State returns the stored state without taking locks.
func (s *Service) State(ctx context.Context, playerID string, kind game.Kind) (*game.PlayerState, error) {
	if _, ok := s.modules[kind]; !ok {
		return nil, errors.New(errors.ErrGameModuleNotFound, fmt.Sprintf("game %s is not available", kind))
	}
	state, err := s.states.GetPlayerState(ctx, playerID, kind)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPlayerStateError, "failed to get player state")
	}
	return state, nil
}

// PlaceBet adds amount to a bet key of a bet-map game.
func (s *Service) PlaceBet(ctx context.Context, player *game.Player, kind game.Kind, key string, amount float64) (*game.PlayerState, error) {
	return s.bet(ctx, player, kind, func(r *round, b game.Bettor) error {
		d, err := ledger.Validate(amount, ledger.LimitsFrom(r.gcfg))
		if err != nil {
			return err
		}
		return b.PlaceBet(r.ctx, key, d)
	})
}

// CancelLast removes the most recent bet.
func (s *Service) CancelLast(ctx context.Context, player *game.Player, kind game.Kind) (*game.PlayerState, error) {
	return s.bet(ctx, player, kind, func(r *round, b game.Bettor) error {
		return b.CancelLast(r.ctx)
	})
}

// RepeatLast re-applies the bets of the last settled round.
func (s *Service) RepeatLast(ctx context.Context, player *game.Player, kind game.Kind) (*game.PlayerState, error) {
	return s.bet(ctx, player, kind, func(r *round, b game.Bettor) error {
		return b.RepeatLast(r.ctx)
	})
}

func (s *Service) bet(ctx context.Context, player *game.Player, kind game.Kind, fn func(*round, game.Bettor) error) (*game.PlayerState, error) {
	r, err := s.acquire(ctx, player, kind)
	if err != nil {
		return nil, err
	}
	defer r.unlock()

	bettor, ok := r.module.(game.Bettor)
	if !ok {
		return nil, errors.New(errors.ErrIllegalAction, fmt.Sprintf("%s does not take bets", kind))
	}
	if r.state.State.InFlight() {
		return nil, errors.New(errors.ErrRoundInProgress, "finish the current round first")
	}
	if err := fn(r, bettor); err != nil {
		return nil, errors.NewWithDebug(errors.ErrInvalidBet, "invalid bet", err.Error())
	}
	if err := s.save(r.ctx, r.state); err != nil {
		return nil, err
	}
	return r.state, nil
}

// Stats sums the player's statistics over every single-player game.
func (s *Service) Stats(ctx context.Context, playerID string) (*PlayerStats, error) {
	out := &PlayerStats{
		Total:  game.Stats{TotalWinnings: decimal.Zero},
		ByGame: make(map[game.Kind]game.Stats),
	}
	for kind := range s.modules {
		state, err := s.states.GetPlayerState(ctx, playerID, kind)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPlayerStateError, "failed to get player state")
		}
		out.ByGame[kind] = state.Stats
		out.Total = out.Total.Add(state.Stats)
	}
	return out, nil
}

// Config returns the normalized configuration of a game.
func (s *Service) Config(ctx context.Context, kind game.Kind) (map[string]interface{}, error) {
	module, ok := s.modules[kind]
	if !ok {
		return nil, errors.New(errors.ErrGameModuleNotFound, fmt.Sprintf("game %s is not available", kind))
	}
	cfg, err := module.GetConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigError, "failed to get game config")
	}
	return cfg.Normalize(), nil
}

// History pages the player's audited rounds.
func (s *Service) History(ctx context.Context, query *providers.HistoryQuery) (*providers.HistoryResponse, error) {
	if s.logs == nil {
		return &providers.HistoryResponse{Items: []providers.HistoryItem{}}, nil
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	resp, err := s.logs.GetRoundHistory(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable, "failed to read history")
	}
	return resp, nil
}

// Missions lists mission progress for the player.
func (s *Service) Missions(ctx context.Context, playerID string) ([]missions.Status, error) {
	if s.tracker == nil {
		return []missions.Status{}, nil
	}
	status, err := s.tracker.Status(ctx, playerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternalServerError, "failed to read missions")
	}
	return status, nil
}

// Leaderboard returns the top players by total winnings.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]providers.LeaderboardEntry, error) {
	if s.board == nil {
		return []providers.LeaderboardEntry{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.board.Top(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRedisError, "failed to read leaderboard")
	}
	return entries, nil
}

// Unpaid lists won-but-unpaid rounds for operators.
func (s *Service) Unpaid(ctx context.Context, f reconcile.Filter) ([]reconcile.UnpaidRound, error) {
	if s.unpaid == nil {
		return []reconcile.UnpaidRound{}, nil
	}
	rounds, err := s.unpaid.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternalServerError, "failed to list unpaid rounds")
	}
	return rounds, nil
}

// Kinds lists the games this service runs.
func (s *Service) Kinds() []game.Kind {
	kinds := lo.Keys(s.modules)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
