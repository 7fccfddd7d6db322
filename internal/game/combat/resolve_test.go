package combat_test

import (
	"strings"
	"testing"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
)

func newTestResolver(t *testing.T, src dice.Source) *combat.Resolver {
	t.Helper()
	return combat.NewResolver(combat.StandardDamage{}, combat.StandardFlee{}, testEffects(t), combat.DefaultCosts(), src)
}

// resolveSession builds a two-participant session with full pools.
func resolveSession() *combat.Session {
	hero := &combat.Participant{
		CharID: "hero", Name: "Astrid", Side: combat.SideAttacker,
		Attack: 10, Defense: 4, Speed: 10, Alive: true,
		Resources: combat.Resources{HP: 30, MaxHP: 30, Mana: 30, MaxMana: 40, Stamina: 20, MaxStamina: 50},
	}
	goblin := &combat.Participant{
		CharID: "goblin", Name: "Snagtooth", Side: combat.SideDefender, NPC: true,
		Attack: 6, Defense: 2, Speed: 5, Alive: true,
		Resources: combat.Resources{HP: 20, MaxHP: 20, Stamina: 50, MaxStamina: 50},
	}
	return &combat.Session{
		ID:           "s1",
		Status:       combat.StatusActive,
		Participants: []*combat.Participant{hero, goblin},
		TurnOrder:    []string{"hero", "goblin"},
		RoundNumber:  1,
		MaxRounds:    50,
	}
}

// TestResolver_Attack verifies the damage formula, stamina charge, and
// result fields for a basic attack.
func TestResolver_Attack(t *testing.T) {
	s := resolveSession()
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionAttack, ActorID: "hero", TargetID: "goblin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// 10 - 2/2 + 3 = 12.
	if res.Damage != 12 {
		t.Errorf("Damage = %d, want 12", res.Damage)
	}
	if res.TargetHP != 8 {
		t.Errorf("TargetHP = %d, want 8", res.TargetHP)
	}
	if got := s.Participant("hero").Resources.Stamina; got != 15 {
		t.Errorf("hero Stamina = %d, want 15", got)
	}
	if !strings.Contains(res.Message, "hits") {
		t.Errorf("Message = %q, want an attack narration", res.Message)
	}
}

// TestResolver_Attack_DefendedTargetTakesHalf verifies the defend buff
// halves damage.
func TestResolver_Attack_DefendedTargetTakesHalf(t *testing.T) {
	s := resolveSession()
	s.Participant("goblin").Effects = s.Participant("goblin").Effects.Apply(effect.Active{
		Status: effect.StatusDefend, Amount: 50, TurnsRemaining: 1,
	})
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionAttack, ActorID: "hero", TargetID: "goblin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Damage != 6 {
		t.Errorf("Damage = %d, want 6 (half of 12)", res.Damage)
	}
}

// TestResolver_Attack_MitigationFollowsBuffAmount verifies the mitigation
// percentage is read off the defend buff rather than fixed.
func TestResolver_Attack_MitigationFollowsBuffAmount(t *testing.T) {
	s := resolveSession()
	s.Participant("goblin").Effects = s.Participant("goblin").Effects.Apply(effect.Active{
		Status: effect.StatusDefend, Amount: 75, TurnsRemaining: 1,
	})
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionAttack, ActorID: "hero", TargetID: "goblin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Damage != 3 {
		t.Errorf("Damage = %d, want 3 (quarter of 12)", res.Damage)
	}
}

// TestResolver_Attack_MinimumOne verifies a landed hit never deals less
// than one damage.
func TestResolver_Attack_MinimumOne(t *testing.T) {
	s := resolveSession()
	hero := s.Participant("hero")
	hero.Attack = 1
	s.Participant("goblin").Defense = 20
	r := newTestResolver(t, &fixedSource{val: 0})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionAttack, ActorID: "hero", TargetID: "goblin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Damage != 1 {
		t.Errorf("Damage = %d, want 1", res.Damage)
	}
}

// TestResolver_Attack_Defeat verifies the kill path: HP floors at zero and
// the narration reports the defeat.
func TestResolver_Attack_Defeat(t *testing.T) {
	s := resolveSession()
	s.Participant("goblin").Resources.HP = 5
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionAttack, ActorID: "hero", TargetID: "goblin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	goblin := s.Participant("goblin")
	if goblin.Resources.HP != 0 || goblin.Alive {
		t.Errorf("goblin HP = %d Alive = %v, want 0 false", goblin.Resources.HP, goblin.Alive)
	}
	if !strings.Contains(res.Message, "defeating") {
		t.Errorf("Message = %q, want a defeat narration", res.Message)
	}
}

// TestResolver_Defend verifies the guard buff and its stamina cost.
func TestResolver_Defend(t *testing.T) {
	s := resolveSession()
	r := newTestResolver(t, &fixedSource{val: 2})

	if _, err := r.Resolve(s, combat.Action{Type: combat.ActionDefend, ActorID: "hero"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hero := s.Participant("hero")
	if hero.Resources.Stamina != 17 {
		t.Errorf("hero Stamina = %d, want 17", hero.Resources.Stamina)
	}
	if !hero.Effects.Has(effect.StatusDefend) {
		t.Error("defend effect not applied")
	}
}

// TestResolver_Flee verifies both flee outcomes against a scripted source.
func TestResolver_Flee(t *testing.T) {
	// Hero speed 10 vs opposing average 5: chance = 50 + 2*5 = 60%.
	t.Run("success", func(t *testing.T) {
		s := resolveSession()
		r := newTestResolver(t, &fixedSource{val: 0})
		res, err := r.Resolve(s, combat.Action{Type: combat.ActionFlee, ActorID: "hero"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !res.Fled || !s.Participant("hero").Fled {
			t.Error("flee roll of 0 against 60% should succeed")
		}
	})
	t.Run("failure", func(t *testing.T) {
		s := resolveSession()
		r := newTestResolver(t, &fixedSource{val: 99})
		res, err := r.Resolve(s, combat.Action{Type: combat.ActionFlee, ActorID: "hero"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Fled || s.Participant("hero").Fled {
			t.Error("flee roll of 99 against 60% should fail")
		}
	})
}

// TestStandardFlee_ClampsChance verifies the 10%/90% clamps at speed
// extremes.
func TestStandardFlee_ClampsChance(t *testing.T) {
	fast := &combat.Participant{CharID: "fast", Speed: 100, Alive: true}
	slow := &combat.Participant{CharID: "slow", Speed: 1, Alive: true}
	slowOpposing := []*combat.Participant{{CharID: "o1", Speed: 10, Alive: true}}
	fastOpposing := []*combat.Participant{{CharID: "o2", Speed: 100, Alive: true}}

	var f combat.StandardFlee
	if !f.Attempt(fast, slowOpposing, &fixedSource{val: 89}) {
		t.Error("roll 89 should pass the 90% ceiling")
	}
	if f.Attempt(fast, slowOpposing, &fixedSource{val: 90}) {
		t.Error("roll 90 should fail the 90% ceiling")
	}
	if !f.Attempt(slow, fastOpposing, &fixedSource{val: 9}) {
		t.Error("roll 9 should pass the 10% floor")
	}
	if f.Attempt(slow, fastOpposing, &fixedSource{val: 10}) {
		t.Error("roll 10 should fail the 10% floor")
	}
}

// TestStandardDamage_AppliesBuffs verifies attack and defense buffs feed
// the formula.
func TestStandardDamage_AppliesBuffs(t *testing.T) {
	attacker := &combat.Participant{CharID: "a", Attack: 10, Alive: true}
	attacker.Effects = attacker.Effects.Apply(effect.Active{Status: effect.StatusAttackUp, Amount: 5, TurnsRemaining: 2})
	target := &combat.Participant{CharID: "b", Defense: 2, Alive: true}
	target.Effects = target.Effects.Apply(effect.Active{Status: effect.StatusDefenseUp, Amount: 4, TurnsRemaining: 2})

	var d combat.StandardDamage
	// (10+5) - (2+4)/2 + 3 = 15.
	if got := d.Damage(attacker, target, &fixedSource{val: 2}); got != 15 {
		t.Errorf("Damage = %d, want 15", got)
	}
}

// TestResolver_UseSkill_Damage verifies skill damage and the mana charge.
func TestResolver_UseSkill_Damage(t *testing.T) {
	s := resolveSession()
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionUseSkill, ActorID: "hero", TargetID: "goblin", EffectID: "firebolt"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// 2d6+4 rolls 3+3+4 = 10.
	if res.Damage != 10 {
		t.Errorf("Damage = %d, want 10", res.Damage)
	}
	if got := s.Participant("goblin").Resources.HP; got != 10 {
		t.Errorf("goblin HP = %d, want 10", got)
	}
	if got := s.Participant("hero").Resources.Mana; got != 18 {
		t.Errorf("hero Mana = %d, want 18", got)
	}
}

// TestResolver_UseSkill_HealSelf verifies a self-targeted heal ignores the
// request target.
func TestResolver_UseSkill_HealSelf(t *testing.T) {
	s := resolveSession()
	s.Participant("hero").Resources.HP = 10
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionUseSkill, ActorID: "hero", TargetID: "goblin", EffectID: "mend_wounds"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// 2d4+6 rolls 3+3+6 = 12 on the actor, not the named target.
	if got := s.Participant("hero").Resources.HP; got != 22 {
		t.Errorf("hero HP = %d, want 22", got)
	}
	if got := s.Participant("goblin").Resources.HP; got != 20 {
		t.Errorf("goblin HP = %d, want 20 (untouched)", got)
	}
	if res.TargetHP != 22 {
		t.Errorf("TargetHP = %d, want 22", res.TargetHP)
	}
}

// TestResolver_UseSkill_Buff verifies a buff skill attaches the rolled
// status effect.
func TestResolver_UseSkill_Buff(t *testing.T) {
	s := resolveSession()
	r := newTestResolver(t, &fixedSource{val: 2})

	if _, err := r.Resolve(s, combat.Action{Type: combat.ActionUseSkill, ActorID: "hero", TargetID: "goblin", EffectID: "stoneskin"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hero := s.Participant("hero")
	// 1d4+2 rolls 3+2 = 5.
	if got := hero.Effects.Amount(effect.StatusDefenseUp); got != 5 {
		t.Errorf("defense_up amount = %d, want 5", got)
	}
	if got := hero.Resources.Mana; got != 22 {
		t.Errorf("hero Mana = %d, want 22", got)
	}
}

// TestResolver_UseItem_Free verifies items charge nothing.
func TestResolver_UseItem_Free(t *testing.T) {
	s := resolveSession()
	s.Participant("hero").Resources.HP = 10
	r := newTestResolver(t, &fixedSource{val: 2})

	if _, err := r.Resolve(s, combat.Action{Type: combat.ActionUseItem, ActorID: "hero", EffectID: "healing_draught"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hero := s.Participant("hero")
	// 3d4+5 rolls 3+3+3+5 = 14.
	if hero.Resources.HP != 24 {
		t.Errorf("hero HP = %d, want 24", hero.Resources.HP)
	}
	if hero.Resources.Mana != 30 {
		t.Errorf("hero Mana = %d, want 30 (unchanged)", hero.Resources.Mana)
	}
}

// TestResolver_UnknownEffect verifies unknown ids surface as validation
// failures.
func TestResolver_UnknownEffect(t *testing.T) {
	s := resolveSession()
	r := newTestResolver(t, &fixedSource{val: 2})

	_, err := r.Resolve(s, combat.Action{Type: combat.ActionUseItem, ActorID: "hero", EffectID: "philosopher_stone"})
	if combat.CodeOf(err) != combat.CodeValidation {
		t.Errorf("code = %s (err %v), want VALIDATION", combat.CodeOf(err), err)
	}
}

// TestResolver_Pass verifies pass changes nothing but the narration.
func TestResolver_Pass(t *testing.T) {
	s := resolveSession()
	before := *s.Participant("hero")
	r := newTestResolver(t, &fixedSource{val: 2})

	res, err := r.Resolve(s, combat.Action{Type: combat.ActionPass, ActorID: "hero"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(res.Message, "passes") {
		t.Errorf("Message = %q, want a pass narration", res.Message)
	}
	if before.Resources != s.Participant("hero").Resources {
		t.Error("pass mutated resources")
	}
}
