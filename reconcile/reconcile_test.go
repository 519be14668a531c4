package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/shopspring/decimal"
)

func TestInsertQuery(t *testing.T) {
	sqlStr, args, err := insertQuery(UnpaidRound{
		RoundID: "r1", PlayerID: "p1", Game: game.KindSlots,
		Stake: decimal.RequireFromString("0.1"), Payout: decimal.RequireFromString("1.0"),
	})
	if err != nil {
		t.Fatalf("insertQuery failed: %v", err)
	}
	if !strings.HasPrefix(sqlStr, "INSERT INTO unpaid_rounds") || !strings.Contains(sqlStr, "ON CONFLICT (round_id) DO NOTHING") {
		t.Errorf("unexpected sql %q", sqlStr)
	}
	if !strings.Contains(sqlStr, "$9") || len(args) != 9 {
		t.Errorf("expected 9 dollar placeholders, got %q with %d args", sqlStr, len(args))
	}
	if args[5] != "0.1" || args[6] != "1" {
		t.Errorf("amounts not stored as exact text: %v %v", args[5], args[6])
	}
}

func TestListQuery(t *testing.T) {
	tests := []struct {
		name  string
		f     Filter
		want  []string
		nargs int
	}{
		{"open only", Filter{}, []string{"resolved_at IS NULL", "ORDER BY created_at DESC"}, 0},
		{"player", Filter{PlayerID: "p1", Limit: 5}, []string{"player_id = $1", "LIMIT 5"}, 1},
		{"all", Filter{IncludeResolved: true}, []string{"FROM unpaid_rounds ORDER BY"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlStr, args, err := listQuery(tt.f)
			if err != nil {
				t.Fatalf("listQuery failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(sqlStr, w) {
					t.Errorf("%q missing %q", sqlStr, w)
				}
			}
			if len(args) != tt.nargs {
				t.Errorf("expected %d args, got %d", tt.nargs, len(args))
			}
		})
	}
}

func TestResolveQuery(t *testing.T) {
	sqlStr, args, err := resolveQuery("r1", "sig")
	if err != nil {
		t.Fatalf("resolveQuery failed: %v", err)
	}
	if !strings.Contains(sqlStr, "resolved_at = now()") || !strings.Contains(sqlStr, "resolved_at IS NULL") {
		t.Errorf("unexpected sql %q", sqlStr)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %v", args)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()
	_ = s.RecordUnpaid(ctx, UnpaidRound{RoundID: "r1", PlayerID: "p1", CreatedAt: base})
	_ = s.RecordUnpaid(ctx, UnpaidRound{RoundID: "r2", PlayerID: "p2", CreatedAt: base.Add(time.Second)})
	_ = s.RecordUnpaid(ctx, UnpaidRound{RoundID: "r1", PlayerID: "dup"})

	open, _ := s.List(ctx, Filter{})
	if len(open) != 2 || open[0].RoundID != "r2" {
		t.Fatalf("unexpected open list %+v", open)
	}
	if err := s.MarkResolved(ctx, "r1", "sig"); err != nil {
		t.Fatalf("MarkResolved failed: %v", err)
	}
	if err := s.MarkResolved(ctx, "r1", "sig"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second resolve, got %v", err)
	}
	open, _ = s.List(ctx, Filter{})
	if len(open) != 1 || open[0].RoundID != "r2" {
		t.Errorf("resolved round still open: %+v", open)
	}
	all, _ := s.List(ctx, Filter{IncludeResolved: true, PlayerID: "p1"})
	if len(all) != 1 || all[0].ResolvedSig != "sig" || all[0].PlayerID != "p1" {
		t.Errorf("unexpected history %+v", all)
	}
}
