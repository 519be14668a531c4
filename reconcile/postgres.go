package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	table       = "unpaid_rounds"
	colRoundID  = "round_id"
	colPlayerID = "player_id"
	colUsername = "username"
	colAddress  = "address"
	colGame     = "game"
	colStake    = "stake"
	colPayout   = "payout"
	colReason   = "reason"
	colCreated  = "created_at"
	colResolved = "resolved_at"
	colSig      = "resolved_signature"
)

// Amounts are stored as their exact decimal text.
const schema = `CREATE TABLE IF NOT EXISTS unpaid_rounds (
	round_id           TEXT PRIMARY KEY,
	player_id          TEXT NOT NULL,
	username           TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	game               TEXT NOT NULL,
	stake              TEXT NOT NULL,
	payout             TEXT NOT NULL,
	reason             TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	resolved_at        TIMESTAMPTZ,
	resolved_signature TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS unpaid_rounds_open_idx ON unpaid_rounds (created_at DESC) WHERE resolved_at IS NULL;`

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore is the durable Store.
type PostgresStore struct {
	db     dbtx
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: pool, pool: pool, logger: logger.With().Str("component", "reconcile").Logger()}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", table, err)
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func insertQuery(r UnpaidRound) (string, []interface{}, error) {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return sq.Insert(table).
		Columns(colRoundID, colPlayerID, colUsername, colAddress, colGame, colStake, colPayout, colReason, colCreated).
		Values(r.RoundID, r.PlayerID, r.Username, r.Address, string(r.Game), r.Stake.String(), r.Payout.String(), r.Reason, created).
		Suffix("ON CONFLICT (" + colRoundID + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func listQuery(f Filter) (string, []interface{}, error) {
	q := sq.Select(colRoundID, colPlayerID, colUsername, colAddress, colGame, colStake, colPayout, colReason, colCreated, colResolved, colSig).
		From(table).
		OrderBy(colCreated + " DESC").
		PlaceholderFormat(sq.Dollar)
	if f.PlayerID != "" {
		q = q.Where(sq.Eq{colPlayerID: f.PlayerID})
	}
	if !f.IncludeResolved {
		q = q.Where(sq.Eq{colResolved: nil})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q.ToSql()
}

func resolveQuery(roundID, signature string) (string, []interface{}, error) {
	return sq.Update(table).
		Set(colResolved, sq.Expr("now()")).
		Set(colSig, signature).
		Where(sq.Eq{colRoundID: roundID, colResolved: nil}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (s *PostgresStore) RecordUnpaid(ctx context.Context, r UnpaidRound) error {
	sqlStr, args, err := insertQuery(r)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record unpaid round %s: %w", r.RoundID, err)
	}
	s.logger.Warn().Str("round_id", r.RoundID).Str("player_id", r.PlayerID).Str("payout", r.Payout.String()).Msg("unpaid round recorded")
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]UnpaidRound, error) {
	sqlStr, args, err := listQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list unpaid rounds: %w", err)
	}
	defer rows.Close()

	var out []UnpaidRound
	for rows.Next() {
		var (
			r             UnpaidRound
			kind          string
			stake, payout string
		)
		if err := rows.Scan(&r.RoundID, &r.PlayerID, &r.Username, &r.Address, &kind, &stake, &payout,
			&r.Reason, &r.CreatedAt, &r.ResolvedAt, &r.ResolvedSig); err != nil {
			return nil, err
		}
		r.Game = game.Kind(kind)
		if r.Stake, err = decimal.NewFromString(stake); err != nil {
			return nil, fmt.Errorf("round %s stake: %w", r.RoundID, err)
		}
		if r.Payout, err = decimal.NewFromString(payout); err != nil {
			return nil, fmt.Errorf("round %s payout: %w", r.RoundID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkResolved(ctx context.Context, roundID, signature string) error {
	sqlStr, args, err := resolveQuery(roundID, signature)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("resolve round %s: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
