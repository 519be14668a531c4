package game

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    RoundState
		to      RoundState
		wantErr bool
	}{
		{"idle to committing", StateIdle, StateCommitting, false},
		{"empty counts as idle", "", StateCommitting, false},
		{"committing back to idle on stake failure", StateCommitting, StateIdle, false},
		{"committing to resolved", StateCommitting, StateResolved, false},
		{"resolved to player turn", StateResolved, StatePlayerTurn, false},
		{"player turn loops on hit", StatePlayerTurn, StatePlayerTurn, false},
		{"settling to settled", StateSettling, StateSettled, false},
		{"settled to idle", StateSettled, StateIdle, false},
		{"idle cannot settle", StateIdle, StateSettled, true},
		{"settled cannot recommit", StateSettled, StateCommitting, true},
		{"settling cannot go idle", StateSettling, StateIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &PlayerState{State: tt.from}
			err := s.Transition(tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("Transition(%s -> %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err == nil && s.State != tt.to {
				t.Errorf("expected state %s, got %s", tt.to, s.State)
			}
		})
	}
}

func TestResetKeepsStats(t *testing.T) {
	s := NewPlayerState("p1", KindSlots)
	s.State = StateSettled
	s.RoundID = "r1"
	s.Stake = decimal.NewFromFloat(0.05)
	s.Unpaid = true
	s.Outcome = &Outcome{Win: true}
	s.Stats = Stats{Spins: 4, Wins: 2, TotalWinnings: decimal.NewFromFloat(0.3)}
	s.PushResult(ResultSummary{RoundID: "r1"})
	if err := s.EncodeData(map[string]int{"x": 1}); err != nil {
		t.Fatalf("EncodeData failed: %v", err)
	}

	s.Reset()

	if s.State != StateIdle || s.RoundID != "" || s.Outcome != nil || s.Unpaid {
		t.Errorf("round fields not cleared: %+v", s)
	}
	if !s.Stake.IsZero() {
		t.Errorf("expected zero stake, got %s", s.Stake)
	}
	if s.Stats.Spins != 4 || s.Stats.Wins != 2 {
		t.Errorf("stats not preserved: %+v", s.Stats)
	}
	if len(s.LastResults) != 1 {
		t.Errorf("last results not preserved")
	}
	if len(s.Data) == 0 {
		t.Errorf("module data should survive reset")
	}
}

func TestPushResultCapsRing(t *testing.T) {
	s := NewPlayerState("p1", KindWheel)
	for i := 0; i < MaxLastResults+5; i++ {
		s.PushResult(ResultSummary{Label: string(rune('a' + i))})
	}
	if len(s.LastResults) != MaxLastResults {
		t.Fatalf("expected %d results, got %d", MaxLastResults, len(s.LastResults))
	}
	if s.LastResults[0].Label != string(rune('a'+MaxLastResults+4)) {
		t.Errorf("newest result should be first, got %q", s.LastResults[0].Label)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"slots", KindSlots, false},
		{" Wheel ", KindWheel, false},
		{"cardduel", KindCardDuel, false},
		{"roulette", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
	if KindPoker.SinglePlayer() {
		t.Errorf("poker is not engine-authoritative")
	}
}

func TestPlayerStateFromJSONDefaultsIdle(t *testing.T) {
	s, err := PlayerStateFromJSON([]byte(`{"playerId":"p","kind":"coinflip"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State != StateIdle {
		t.Errorf("expected idle, got %q", s.State)
	}
}
