package combat

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
)

// DamageCalculator computes attack damage. It is a replaceable strategy so
// balancing changes never touch engine logic.
type DamageCalculator interface {
	// Damage returns the raw damage of attacker striking target, before
	// defend mitigation. Must be >= 0.
	Damage(attacker, target *Participant, src dice.Source) int
}

// FleeCalculator decides whether a flee attempt succeeds. Replaceable for
// the same reason as DamageCalculator.
type FleeCalculator interface {
	Attempt(actor *Participant, opposing []*Participant, src dice.Source) bool
}

// defendMitigationPct is the share of incoming damage a defend stance
// absorbs, carried on the buff so mitigation and stance stay in one place.
const defendMitigationPct = 50

// StandardDamage is the default damage formula: attack minus half defense,
// plus 1d6 variance, floored at 1 on any landed hit.
type StandardDamage struct{}

var damageVariance = dice.MustParse("1d6")

// Damage implements DamageCalculator.
//
// Postcondition: Returns >= 1.
func (StandardDamage) Damage(attacker, target *Participant, src dice.Source) int {
	atk := attacker.Attack + attacker.Effects.Amount(effect.StatusAttackUp)
	def := target.Defense + target.Effects.Amount(effect.StatusDefenseUp)
	dmg := atk - def/2 + damageVariance.Roll(src)
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// StandardFlee is the default flee formula: 50% base chance shifted by 2%
// per point of speed advantage over the opposing side's average, clamped to
// [10%, 90%].
type StandardFlee struct{}

// Attempt implements FleeCalculator.
func (StandardFlee) Attempt(actor *Participant, opposing []*Participant, src dice.Source) bool {
	chance := 50
	if avg := averageSpeed(opposing); avg > 0 {
		chance += 2 * (actor.Speed - avg)
	}
	if chance < 10 {
		chance = 10
	}
	if chance > 90 {
		chance = 90
	}
	return src.Intn(100) < chance
}

func averageSpeed(ps []*Participant) int {
	var sum, n int
	for _, p := range ps {
		if p.CanAct() {
			sum += p.Speed
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// ActionResult reports one resolved action to the caller.
type ActionResult struct {
	SessionID string     `json:"session_id"`
	ActorID   string     `json:"actor_id"`
	TargetID  string     `json:"target_id,omitempty"`
	Type      ActionType `json:"-"`
	Action    string     `json:"action"`
	Message   string     `json:"message"`

	// Damage is positive when the action hurt the target, negative when it
	// healed. Zero for non-damaging actions.
	Damage   int  `json:"damage,omitempty"`
	TargetHP int  `json:"target_hp,omitempty"`
	Fled     bool `json:"fled,omitempty"`

	CombatStatus Status  `json:"combat_status"`
	RoundNumber  int     `json:"round_number"`
	NextActorID  string  `json:"next_actor_id,omitempty"`
	Result       *Result `json:"result,omitempty"`
}

// EffectRegistry is the item/skill collaborator contract: cost lookup for
// validation and delta computation for application. The engine never learns
// item or skill content, only cost and delta application.
type EffectRegistry interface {
	skillCoster
	Resolve(effectID string, src dice.Source) (effect.Delta, error)
}

// Resolver computes and applies the effects of validated actions.
type Resolver struct {
	damage  DamageCalculator
	flee    FleeCalculator
	effects EffectRegistry
	costs   CostTable
	src     dice.Source
}

// NewResolver creates a Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(damage DamageCalculator, flee FleeCalculator, effects EffectRegistry, costs CostTable, src dice.Source) *Resolver {
	return &Resolver{damage: damage, flee: flee, effects: effects, costs: costs, src: src}
}

// Resolve applies a validated action to the session in place and returns
// the partially filled ActionResult (status, round, and next-actor fields
// are the engine's to complete).
//
// Precondition: a passed ValidateAction against s.
// Postcondition: resource costs are charged; damage is clamped so pools
// stay within [0, max]; returns a non-nil result or an error.
func (r *Resolver) Resolve(s *Session, a Action) (*ActionResult, error) {
	actor := s.Participant(a.ActorID)
	res := &ActionResult{
		SessionID: s.ID,
		ActorID:   a.ActorID,
		TargetID:  a.TargetID,
		Type:      a.Type,
		Action:    a.Type.String(),
	}

	switch a.Type {
	case ActionAttack:
		target := s.Participant(a.TargetID)
		actor.Resources.Stamina -= r.costs.AttackStamina
		dmg := r.damage.Damage(actor, target, r.src)
		if pct := target.Effects.Amount(effect.StatusDefend); pct > 0 {
			dmg = dmg * (100 - pct) / 100
			if dmg < 1 {
				dmg = 1
			}
		}
		target.ApplyDamage(dmg)
		res.Damage = dmg
		res.TargetHP = target.Resources.HP
		if !target.Alive {
			res.Message = fmt.Sprintf("%s hits %s for %d damage, defeating them", actor.Name, target.Name, dmg)
		} else {
			res.Message = fmt.Sprintf("%s hits %s for %d damage", actor.Name, target.Name, dmg)
		}

	case ActionDefend:
		actor.Resources.Stamina -= r.costs.DefendStamina
		// Amount is the mitigation percentage. Lasts through the opposing
		// turns and drops when the defender's own next turn begins.
		actor.Effects = actor.Effects.Apply(effect.Active{
			Status:         effect.StatusDefend,
			Amount:         defendMitigationPct,
			TurnsRemaining: 1,
		})
		res.Message = fmt.Sprintf("%s braces behind their guard", actor.Name)

	case ActionFlee:
		opposing := s.OnSide(actor.Side.Opposing())
		if r.flee.Attempt(actor, opposing, r.src) {
			actor.Fled = true
			res.Fled = true
			res.Message = fmt.Sprintf("%s escapes from combat", actor.Name)
		} else {
			res.Message = fmt.Sprintf("%s fails to escape", actor.Name)
		}

	case ActionUseItem, ActionUseSkill:
		delta, err := r.effects.Resolve(a.EffectID, r.src)
		if err != nil {
			return nil, NewError(CodeValidation, "unknown item or skill %q", a.EffectID)
		}
		if a.Type == ActionUseSkill {
			cost, err := r.effects.Cost(a.EffectID)
			if err != nil {
				return nil, NewError(CodeValidation, "unknown skill %q", a.EffectID)
			}
			actor.Resources.Mana -= cost
		}
		target := actor
		if !delta.SelfTarget && a.TargetID != "" {
			if t := s.Participant(a.TargetID); t != nil {
				target = t
			}
		}
		switch {
		case delta.HP < 0:
			target.ApplyDamage(-delta.HP)
			res.Damage = -delta.HP
			res.TargetHP = target.Resources.HP
			res.Message = fmt.Sprintf("%s uses %s on %s for %d damage", actor.Name, delta.Description, target.Name, -delta.HP)
		case delta.HP > 0:
			target.Heal(delta.HP)
			res.Damage = -delta.HP
			res.TargetHP = target.Resources.HP
			res.Message = fmt.Sprintf("%s uses %s, restoring %d health to %s", actor.Name, delta.Description, delta.HP, target.Name)
		default:
			res.Message = fmt.Sprintf("%s uses %s on %s", actor.Name, delta.Description, target.Name)
		}
		if delta.Buff != nil {
			target.Effects = target.Effects.Apply(*delta.Buff)
			res.TargetHP = target.Resources.HP
		}

	case ActionPass:
		res.Message = fmt.Sprintf("%s passes", actor.Name)

	default:
		return nil, NewError(CodeValidation, "unknown action type")
	}

	return res, nil
}
