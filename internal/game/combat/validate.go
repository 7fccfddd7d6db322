package combat

// skillCoster supplies the mana cost for an item or skill definition. The
// effect registry implements it; the validator needs nothing else from it.
type skillCoster interface {
	Cost(effectID string) (int, error)
}

// ValidateAction checks a submitted action against session state, turn
// ownership, and resource cost. Checks run in a fixed order and the first
// failure wins; the session is never mutated here.
//
// Order: session active → actor membership → turn ownership → action shape →
// resource cost. An affordability failure does not consume the turn, so the
// actor may resubmit a cheaper action.
func ValidateAction(s *Session, actorID string, a Action, costs CostTable, coster skillCoster) error {
	if s == nil || s.Status != StatusActive {
		return NewError(CodeInvalidAction, "session not found or not active")
	}

	actor := s.Participant(actorID)
	if actor == nil {
		return NewError(CodeInvalidAction, "actor %q not in this combat", actorID)
	}

	// Turn ownership applies uniformly, including flee.
	if s.CurrentActorID() != actorID {
		return NewError(CodeInvalidAction, "not your turn")
	}

	switch a.Type {
	case ActionAttack, ActionDefend, ActionFlee, ActionUseItem, ActionUseSkill, ActionPass:
	default:
		return NewError(CodeValidation, "unknown action type")
	}

	if a.Type.RequiresTarget() && a.TargetID == "" {
		return NewError(CodeValidation, "action %s requires a target", a.Type)
	}
	// A supplied target must resolve even for action types that can do
	// without one, since items may be aimed at any participant.
	if a.TargetID != "" {
		target := s.Participant(a.TargetID)
		if target == nil {
			return NewError(CodeInvalidAction, "target %q not in this combat", a.TargetID)
		}
		if !target.CanAct() {
			return NewError(CodeInvalidAction, "target %q is already out of the fight", a.TargetID)
		}
	}

	if (a.Type == ActionUseItem || a.Type == ActionUseSkill) && a.EffectID == "" {
		return NewError(CodeValidation, "action %s requires an item or skill id", a.Type)
	}

	cost, resource, err := actionCost(a, costs, coster)
	if err != nil {
		return err
	}
	if cost > 0 {
		var have int
		switch resource {
		case "stamina":
			have = actor.Resources.Stamina
		case "mana":
			have = actor.Resources.Mana
		}
		if have < cost {
			return NewError(CodeInsufficientResources,
				"%s requires %d %s, have %d", a.Type, cost, resource, have)
		}
	}
	return nil
}

// actionCost returns the cost and the pool it draws from for the action.
// Unknown effect ids are a validation failure.
func actionCost(a Action, costs CostTable, coster skillCoster) (cost int, resource string, err error) {
	switch a.Type {
	case ActionAttack:
		return costs.AttackStamina, "stamina", nil
	case ActionDefend:
		return costs.DefendStamina, "stamina", nil
	case ActionUseSkill:
		c, err := coster.Cost(a.EffectID)
		if err != nil {
			return 0, "", NewError(CodeValidation, "unknown skill %q", a.EffectID)
		}
		return c, "mana", nil
	case ActionUseItem:
		// Items have no resource cost; availability is the inventory
		// collaborator's concern, outside this engine.
		if _, err := coster.Cost(a.EffectID); err != nil {
			return 0, "", NewError(CodeValidation, "unknown item %q", a.EffectID)
		}
		return 0, "", nil
	default:
		return 0, "", nil
	}
}
