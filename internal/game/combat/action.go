package combat

import "time"

// ActionType identifies what a participant intends to do on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota // zero value; intentionally invalid
	ActionAttack                    // costs stamina; requires a target
	ActionDefend                    // costs stamina; buffs until next turn
	ActionFlee                      // free; chance-based escape
	ActionUseItem                   // free; effect computed by the registry
	ActionUseSkill                  // costs mana; requires a target
	ActionPass                      // free; forfeits the turn
)

// String returns the human-readable name of the ActionType.
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionFlee:
		return "flee"
	case ActionUseItem:
		return "use_item"
	case ActionUseSkill:
		return "use_skill"
	case ActionPass:
		return "pass"
	default:
		return "unknown"
	}
}

// ParseActionType converts a wire string to an ActionType.
// Unknown strings yield ActionUnknown, which validation rejects.
func ParseActionType(s string) ActionType {
	switch s {
	case "attack":
		return ActionAttack
	case "defend":
		return ActionDefend
	case "flee":
		return ActionFlee
	case "use_item":
		return ActionUseItem
	case "use_skill":
		return ActionUseSkill
	case "pass":
		return ActionPass
	default:
		return ActionUnknown
	}
}

// RequiresTarget reports whether this action type must name a target.
func (a ActionType) RequiresTarget() bool {
	return a == ActionAttack || a == ActionUseSkill
}

// Action is one submitted combat action.
type Action struct {
	Type ActionType
	// ActorID is the acting participant. Filled by the engine from the
	// caller identity, never trusted from the request body.
	ActorID string
	// TargetID is required for ActionAttack and ActionUseSkill; items may
	// target self depending on the definition.
	TargetID string
	// EffectID names the item or skill for ActionUseItem/ActionUseSkill.
	EffectID string
	// Timestamp is when the action was received.
	Timestamp time.Time
}

// CostTable holds the flat stamina costs for basic actions. Skill mana
// costs come from the effect registry per definition.
type CostTable struct {
	AttackStamina int
	DefendStamina int
}

// DefaultCosts returns the standard action cost table.
func DefaultCosts() CostTable {
	return CostTable{AttackStamina: 5, DefendStamina: 3}
}
