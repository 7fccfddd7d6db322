package combat_test

import (
	"testing"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// TestStatus_Terminal verifies only ENDED and TIMEOUT are terminal.
func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   combat.Status
		terminal bool
	}{
		{combat.StatusPending, false},
		{combat.StatusActive, false},
		{combat.StatusEnded, true},
		{combat.StatusTimeout, true},
	}
	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

// TestSide_Opposing verifies the two sides mirror each other.
func TestSide_Opposing(t *testing.T) {
	if combat.SideAttacker.Opposing() != combat.SideDefender {
		t.Error("attacker should oppose defender")
	}
	if combat.SideDefender.Opposing() != combat.SideAttacker {
		t.Error("defender should oppose attacker")
	}
}

// TestParticipant_ApplyDamage verifies flooring at zero and the death flag.
func TestParticipant_ApplyDamage(t *testing.T) {
	p := &combat.Participant{Alive: true, Resources: combat.Resources{HP: 10, MaxHP: 30}}

	p.ApplyDamage(4)
	if p.Resources.HP != 6 || !p.Alive {
		t.Errorf("HP = %d Alive = %v, want 6 true", p.Resources.HP, p.Alive)
	}
	p.ApplyDamage(100)
	if p.Resources.HP != 0 || p.Alive {
		t.Errorf("HP = %d Alive = %v, want 0 false", p.Resources.HP, p.Alive)
	}
}

// TestParticipant_Heal verifies the cap and that healing never revives.
func TestParticipant_Heal(t *testing.T) {
	p := &combat.Participant{Alive: true, Resources: combat.Resources{HP: 25, MaxHP: 30}}
	p.Heal(10)
	if p.Resources.HP != 30 {
		t.Errorf("HP = %d, want 30 (capped)", p.Resources.HP)
	}

	down := &combat.Participant{Alive: false, Resources: combat.Resources{HP: 0, MaxHP: 30}}
	down.Heal(10)
	if down.Resources.HP != 0 || down.Alive {
		t.Errorf("HP = %d Alive = %v, want 0 false (no revive)", down.Resources.HP, down.Alive)
	}
}

// TestParticipant_CanAct verifies the alive-and-present predicate.
func TestParticipant_CanAct(t *testing.T) {
	p := &combat.Participant{Alive: true}
	if !p.CanAct() {
		t.Error("living participant should act")
	}
	p.Fled = true
	if p.CanAct() {
		t.Error("fled participant should not act")
	}
	p.Fled = false
	p.Alive = false
	if p.CanAct() {
		t.Error("downed participant should not act")
	}
}

// TestSession_SideEliminated verifies elimination across death and flight.
func TestSession_SideEliminated(t *testing.T) {
	s := &combat.Session{Participants: []*combat.Participant{
		{CharID: "a1", Side: combat.SideAttacker, Alive: true},
		{CharID: "d1", Side: combat.SideDefender, Alive: true},
		{CharID: "d2", Side: combat.SideDefender, Alive: true},
	}}

	if s.SideEliminated(combat.SideDefender) {
		t.Error("defenders still standing")
	}
	s.Participant("d1").Alive = false
	s.Participant("d2").Fled = true
	if !s.SideEliminated(combat.SideDefender) {
		t.Error("defenders all down or gone, side should be eliminated")
	}
	if s.SideEliminated(combat.SideAttacker) {
		t.Error("attacker still standing")
	}
}

// TestSession_Lookups verifies Participant, OnSide, and CurrentActorID.
func TestSession_Lookups(t *testing.T) {
	s := &combat.Session{
		Participants: []*combat.Participant{
			{CharID: "a1", Side: combat.SideAttacker, Alive: true},
			{CharID: "d1", Side: combat.SideDefender, Alive: true},
		},
		TurnOrder:        []string{"d1", "a1"},
		CurrentTurnIndex: 1,
	}

	if s.Participant("a1") == nil || s.Participant("ghost") != nil {
		t.Error("Participant lookup mismatch")
	}
	if got := len(s.OnSide(combat.SideDefender)); got != 1 {
		t.Errorf("OnSide(defender) = %d participants, want 1", got)
	}
	if s.CurrentActorID() != "a1" {
		t.Errorf("CurrentActorID = %s, want a1", s.CurrentActorID())
	}
}
