package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

type startCombatRequest struct {
	InitiatorID string   `json:"initiator_id"`
	TargetIDs   []string `json:"target_ids"`
	BattleType  string   `json:"battle_type"`
}

type actionRequest struct {
	ActorID  string `json:"actor_id"`
	Type     string `json:"type"`
	TargetID string `json:"target_id"`
	EffectID string `json:"effect_id"`
}

type fleeRequest struct {
	ActorID string `json:"actor_id"`
}

func (s *Server) handleStartCombat(c *fiber.Ctx) error {
	var req startCombatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.InitiatorID == "" {
		return badRequest(c, "initiator_id is required")
	}
	battleType := combat.BattleType(req.BattleType)
	if battleType != combat.BattlePVE && battleType != combat.BattlePVP {
		return badRequest(c, "battle_type must be PVE or PVP")
	}

	sess, err := s.engine.StartCombat(c.Context(), req.InitiatorID, req.TargetIDs, battleType)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.engine.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(sess)
}

func (s *Server) handleAction(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.ActorID == "" {
		return badRequest(c, "actor_id is required")
	}
	sessionID := c.Params("id")

	action := combat.Action{
		Type:     combat.ParseActionType(req.Type),
		TargetID: req.TargetID,
		EffectID: req.EffectID,
	}

	// Convenience default: a targeted action against the one remaining
	// opponent needs no explicit target. This lives here, not in the
	// engine, whose contract stays strict.
	if action.Type.RequiresTarget() && action.TargetID == "" {
		if target, ok := s.soleOpponent(c, sessionID, req.ActorID); ok {
			action.TargetID = target
		}
	}

	result, err := s.engine.ProcessAction(c.Context(), sessionID, req.ActorID, action)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleFlee(c *fiber.Ctx) error {
	var req fleeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.ActorID == "" {
		return badRequest(c, "actor_id is required")
	}
	result, err := s.engine.FleeCombat(c.Context(), c.Params("id"), req.ActorID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(result)
}

// soleOpponent returns the target id when the actor faces exactly one
// participant that can still act on the opposing side.
func (s *Server) soleOpponent(c *fiber.Ctx, sessionID, actorID string) (string, bool) {
	sess, err := s.engine.GetSession(c.Context(), sessionID)
	if err != nil {
		return "", false
	}
	actor := sess.Participant(actorID)
	if actor == nil {
		return "", false
	}
	var target string
	for _, p := range sess.OnSide(actor.Side.Opposing()) {
		if !p.CanAct() {
			continue
		}
		if target != "" {
			return "", false
		}
		target = p.CharID
	}
	return target, target != ""
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody{
		Code:    string(combat.CodeValidation),
		Message: msg,
	})
}
