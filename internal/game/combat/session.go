// Package combat implements the turn-based combat session engine: session
// lifecycle, turn ordering, action validation and resolution, and lazy
// resource regeneration. Sessions are persisted as snapshots in an injected
// SessionStore; the engine holds no session state of its own.
package combat

import (
	"time"

	"github.com/cory-johannsen/arena/internal/game/effect"
)

// Status is the session lifecycle state.
// Transitions: PENDING → ACTIVE → {ENDED, TIMEOUT}. Terminal states reject
// all further actions.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusEnded   Status = "ENDED"
	StatusTimeout Status = "TIMEOUT"
)

// Terminal reports whether the status accepts no further actions.
func (s Status) Terminal() bool { return s == StatusEnded || s == StatusTimeout }

// BattleType distinguishes player-versus-environment from player-versus-player.
type BattleType string

const (
	BattlePVE BattleType = "PVE"
	BattlePVP BattleType = "PVP"
)

// Side groups participants into the attacker and defender teams.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Opposing returns the other side.
func (s Side) Opposing() Side {
	if s == SideAttacker {
		return SideDefender
	}
	return SideAttacker
}

// ResultKind names how a session concluded.
type ResultKind string

const (
	ResultVictory ResultKind = "victory"
	ResultFlee    ResultKind = "flee"
	ResultTimeout ResultKind = "timeout"
)

// Result records the terminal outcome of a session.
type Result struct {
	Kind ResultKind `json:"kind"`
	// WinningSide is set for victory and flee outcomes; empty for timeout.
	WinningSide Side `json:"winning_side,omitempty"`
}

// Resources is a participant's pool snapshot, taken from the character
// record at session start. The live character record is not touched until
// reconciliation at session end.
//
// Invariant: 0 <= pool <= max pool at all times.
type Resources struct {
	HP         int `json:"hp"`
	MaxHP      int `json:"max_hp"`
	Mana       int `json:"mana"`
	MaxMana    int `json:"max_mana"`
	Stamina    int `json:"stamina"`
	MaxStamina int `json:"max_stamina"`

	// Regeneration rates in points per second.
	HPRegen      float64 `json:"hp_regen"`
	ManaRegen    float64 `json:"mana_regen"`
	StaminaRegen float64 `json:"stamina_regen"`

	// Sub-point regeneration accrual carried between applications, so rates
	// below one point per second still pay out under frequent actions.
	HPCarry      float64 `json:"hp_carry,omitempty"`
	ManaCarry    float64 `json:"mana_carry,omitempty"`
	StaminaCarry float64 `json:"stamina_carry,omitempty"`

	// LastRegenAt is the instant up to which passive regeneration has been
	// applied.
	LastRegenAt time.Time `json:"last_regen_at"`
}

// Participant is one combatant's in-session state.
type Participant struct {
	CharID string `json:"char_id"`
	Name   string `json:"name"`
	Side   Side   `json:"side"`
	NPC    bool   `json:"npc"`

	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`

	Resources Resources  `json:"resources"`
	Effects   effect.Set `json:"effects,omitempty"`

	Alive bool `json:"alive"`
	Fled  bool `json:"fled"`
}

// CanAct reports whether this participant takes turns: alive and not fled.
func (p *Participant) CanAct() bool { return p.Alive && !p.Fled }

// ApplyDamage reduces HP by amount, flooring at zero, and clears Alive when
// the pool empties.
//
// Precondition: amount >= 0.
// Postcondition: Resources.HP >= 0; Alive is false iff HP == 0.
func (p *Participant) ApplyDamage(amount int) {
	p.Resources.HP -= amount
	if p.Resources.HP <= 0 {
		p.Resources.HP = 0
		p.Alive = false
	}
}

// Heal raises HP by amount, capped at MaxHP. Healing never revives: a
// participant at 0 HP stays down.
//
// Precondition: amount >= 0.
func (p *Participant) Heal(amount int) {
	if !p.Alive {
		return
	}
	p.Resources.HP += amount
	if p.Resources.HP > p.Resources.MaxHP {
		p.Resources.HP = p.Resources.MaxHP
	}
}

// Session is one combat encounter's full persisted state.
type Session struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	BattleType BattleType `json:"battle_type"`

	// Participants is ordered by registration: initiator first, then
	// targets in request order.
	Participants []*Participant `json:"participants"`

	// TurnOrder is a permutation of participant CharIDs fixed at creation.
	// Its length never changes over the session's life; defeated and fled
	// participants stay in the order and are skipped.
	TurnOrder []string `json:"turn_order"`

	// CurrentTurnIndex indexes TurnOrder.
	//
	// Invariant: while Status == ACTIVE, TurnOrder[CurrentTurnIndex]
	// identifies a participant with Alive && !Fled.
	CurrentTurnIndex int `json:"current_turn_index"`

	// RoundNumber starts at 1 and increments on turn-order wraparound.
	// Non-decreasing across all operations on one session.
	RoundNumber int `json:"round_number"`
	MaxRounds   int `json:"max_rounds"`

	CreatedAt    time.Time `json:"created_at"`
	LastActionAt time.Time `json:"last_action_at"`

	Result *Result `json:"result,omitempty"`
}

// Participant returns the participant with the given CharID, or nil.
func (s *Session) Participant(charID string) *Participant {
	for _, p := range s.Participants {
		if p.CharID == charID {
			return p
		}
	}
	return nil
}

// CurrentActorID returns the CharID whose turn it is.
//
// Precondition: TurnOrder is non-empty and CurrentTurnIndex is in range.
func (s *Session) CurrentActorID() string {
	return s.TurnOrder[s.CurrentTurnIndex]
}

// OnSide returns all participants on the given side.
func (s *Session) OnSide(side Side) []*Participant {
	var out []*Participant
	for _, p := range s.Participants {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// SideEliminated reports whether no participant on side can still act.
func (s *Session) SideEliminated(side Side) bool {
	for _, p := range s.Participants {
		if p.Side == side && p.CanAct() {
			return false
		}
	}
	return true
}
