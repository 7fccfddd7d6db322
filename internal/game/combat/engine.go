package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
)

// SessionStore is the durable keyed storage for session snapshots. It is
// the sole source of truth: the engine holds no private cache, so multiple
// engine instances stay consistent.
//
// Update is the atomic read-modify-write primitive that serialises all
// mutations against one session id. Implementations must guarantee that if
// two Update calls race on the same id, the second observes the first's
// committed state; updates on different ids must not block each other.
// When fn returns an error, nothing is written and the error is returned
// unchanged.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, id string, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, ttl time.Duration, fn func(*Session) (*Session, error)) (*Session, error)

	// BindActor/ActorSession/ReleaseActor maintain the secondary index
	// actor → session id, so the already-in-combat check is a lookup
	// rather than a scan.
	BindActor(ctx context.Context, actorID, sessionID string, ttl time.Duration) error
	ActorSession(ctx context.Context, actorID string) (string, error)
	ReleaseActor(ctx context.Context, actorID string) error
}

// CharacterSource supplies participant snapshots from character records at
// session start.
type CharacterSource interface {
	Character(ctx context.Context, charID string) (*character.Character, error)
}

// Reconciler writes a session's final resource values back to the
// authoritative character records, once, at session end.
type Reconciler interface {
	Reconcile(ctx context.Context, sessionID string, participants []*Participant) error
}

// EngineConfig carries the tunables for a combat Engine.
type EngineConfig struct {
	// MaxRounds is the round limit before a session times out.
	MaxRounds int
	// SessionTTL is the idle expiry applied on every write. Expired
	// sessions become unobservable, which is distinct from TIMEOUT.
	SessionTTL time.Duration
	// Costs is the flat action cost table.
	Costs CostTable
}

// Engine orchestrates combat sessions: creation, reads, action processing,
// and lifecycle to a terminal outcome. All methods are safe for concurrent
// use; per-session ordering is delegated to SessionStore.Update.
type Engine struct {
	store      SessionStore
	chars      CharacterSource
	reconciler Reconciler
	resolver   *Resolver
	effects    EffectRegistry
	cfg        EngineConfig
	logger     *zap.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewEngine creates a combat Engine.
//
// Precondition: store, chars, effects, src, and logger must be non-nil;
// reconciler may be nil (final-state write-back is skipped).
// Postcondition: Returns an Engine using the standard damage and flee
// formulas; swap them with SetStrategies before use if needed.
func NewEngine(store SessionStore, chars CharacterSource, reconciler Reconciler, effects EffectRegistry, src dice.Source, cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 50
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.Costs == (CostTable{}) {
		cfg.Costs = DefaultCosts()
	}
	return &Engine{
		store:      store,
		chars:      chars,
		reconciler: reconciler,
		resolver:   NewResolver(StandardDamage{}, StandardFlee{}, effects, cfg.Costs, src),
		effects:    effects,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// SetStrategies replaces the damage and flee formulas. Intended for wiring
// and tests, before the engine serves requests.
func (e *Engine) SetStrategies(damage DamageCalculator, flee FleeCalculator) {
	e.resolver.damage = damage
	e.resolver.flee = flee
}

// SetClock replaces the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// StartCombat creates a new ACTIVE session between the initiator and the
// targets.
//
// Preconditions enforced: targets non-empty and distinct from the
// initiator; the initiator holds no other active session; at least two
// distinct sides after snapshotting.
// Postcondition: the session is persisted with TTL and every participant is
// bound in the actor index.
func (e *Engine) StartCombat(ctx context.Context, initiatorID string, targetIDs []string, battleType BattleType) (*Session, error) {
	if len(targetIDs) == 0 {
		return nil, NewError(CodeInvalidTarget, "at least one target is required")
	}
	seen := map[string]bool{initiatorID: true}
	targets := make([]string, 0, len(targetIDs))
	for _, id := range targetIDs {
		if id == initiatorID {
			return nil, NewError(CodeInvalidTarget, "cannot target yourself")
		}
		if id == "" {
			return nil, NewError(CodeInvalidTarget, "empty target id")
		}
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}

	if existing, err := e.store.ActorSession(ctx, initiatorID); err == nil && existing != "" {
		// The binding may outlive a finished session only briefly; verify.
		if s, err := e.store.Get(ctx, existing); err == nil && s.Status == StatusActive {
			return nil, NewError(CodeAlreadyInCombat, "already in combat session %s", existing)
		}
	} else if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, WrapStoreError(err)
	}

	now := e.now()
	participants := make([]*Participant, 0, 1+len(targets))
	initiator, err := e.snapshot(ctx, initiatorID, SideAttacker, now)
	if err != nil {
		return nil, err
	}
	participants = append(participants, initiator)
	for _, id := range targets {
		p, err := e.snapshot(ctx, id, SideDefender, now)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	if len(participants) < 2 {
		return nil, NewError(CodeInsufficientParticipants, "need at least two participants")
	}

	s := &Session{
		ID:           uuid.New().String(),
		Status:       StatusActive,
		BattleType:   battleType,
		Participants: participants,
		TurnOrder:    ComputeTurnOrder(participants),
		RoundNumber:  1,
		MaxRounds:    e.cfg.MaxRounds,
		CreatedAt:    now,
		LastActionAt: now,
	}

	if err := e.store.Put(ctx, s.ID, s, e.cfg.SessionTTL); err != nil {
		return nil, WrapStoreError(err)
	}
	for _, p := range participants {
		if err := e.store.BindActor(ctx, p.CharID, s.ID, e.cfg.SessionTTL); err != nil {
			return nil, WrapStoreError(err)
		}
	}

	e.logger.Info("combat started",
		zap.String("session_id", s.ID),
		zap.String("battle_type", string(battleType)),
		zap.String("initiator", initiatorID),
		zap.Int("participants", len(participants)),
	)
	return s, nil
}

// GetSession returns the session with regeneration applied to the response.
// A lazily detected round-limit timeout is persisted before returning.
//
// Postcondition: Returns ErrSessionNotFound for missing or expired
// sessions; that is an expected outcome, not an engine failure.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	s, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, WrapStoreError(err)
	}

	if s.Status == StatusActive && s.RoundNumber > s.MaxRounds {
		s, err = e.store.Update(ctx, sessionID, e.cfg.SessionTTL, func(cur *Session) (*Session, error) {
			if cur.Status == StatusActive && cur.RoundNumber > cur.MaxRounds {
				cur.Status = StatusTimeout
				cur.Result = &Result{Kind: ResultTimeout}
			}
			return cur, nil
		})
		if err != nil {
			return nil, WrapStoreError(err)
		}
		e.finishSession(ctx, s)
	}

	// Regen is deterministic from LastRegenAt, so the read path applies it
	// to the response copy without a store write.
	RegenerateAll(s, e.now())
	return s, nil
}

// ProcessAction validates and resolves one action against the session. The
// whole read-modify-write cycle runs inside the store's atomic Update, so
// concurrent calls against the same session are totally ordered and a
// failed validation leaves no visible mutation.
func (e *Engine) ProcessAction(ctx context.Context, sessionID, actorID string, a Action) (*ActionResult, error) {
	a.ActorID = actorID
	if a.Timestamp.IsZero() {
		a.Timestamp = e.now()
	}

	var (
		result     *ActionResult
		timeoutErr *Error
	)
	s, err := e.store.Update(ctx, sessionID, e.cfg.SessionTTL, func(cur *Session) (*Session, error) {
		// Lazy timeout detection: the transition is persisted even though
		// the triggering action is rejected.
		if cur.Status == StatusActive && cur.RoundNumber > cur.MaxRounds {
			cur.Status = StatusTimeout
			cur.Result = &Result{Kind: ResultTimeout}
			timeoutErr = NewError(CodeCombatTimeout, "combat timed out after %d rounds", cur.MaxRounds)
			return cur, nil
		}
		r, err := e.step(cur, a)
		if err != nil {
			return nil, err
		}
		result = r
		return cur, nil
	})
	if err != nil {
		var domainErr *Error
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return nil, NewError(CodeInvalidAction, "session not found or not active")
		case errors.As(err, &domainErr):
			e.logger.Debug("action rejected",
				zap.String("session_id", sessionID),
				zap.String("actor", actorID),
				zap.String("code", string(domainErr.Code)),
			)
			return nil, err
		default:
			e.logger.Error("action commit failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return nil, WrapStoreError(err)
		}
	}

	if s.Status.Terminal() {
		e.finishSession(ctx, s)
	} else {
		// The session TTL was refreshed by Update; the actor bindings must
		// follow, or a long-running session lets its participants start a
		// second fight once the initial binding TTL lapses.
		for _, p := range s.Participants {
			if err := e.store.BindActor(ctx, p.CharID, s.ID, e.cfg.SessionTTL); err != nil {
				e.logger.Error("refreshing actor binding",
					zap.String("session_id", s.ID),
					zap.String("char_id", p.CharID),
					zap.Error(err),
				)
			}
		}
	}
	if timeoutErr != nil {
		return nil, timeoutErr
	}

	if result.Type == ActionFlee || result.CombatStatus.Terminal() {
		e.logger.Info("combat action",
			zap.String("session_id", sessionID),
			zap.String("actor", actorID),
			zap.String("action", result.Action),
			zap.String("status", string(result.CombatStatus)),
		)
	}
	return result, nil
}

// FleeCombat is sugar for ProcessAction with an ActionFlee action.
func (e *Engine) FleeCombat(ctx context.Context, sessionID, actorID string) (*ActionResult, error) {
	return e.ProcessAction(ctx, sessionID, actorID, Action{Type: ActionFlee})
}

// step runs one full turn against the in-store session state: regeneration,
// validation, resolution, end-condition checks, and turn advancement.
// Called inside SessionStore.Update.
func (e *Engine) step(s *Session, a Action) (*ActionResult, error) {
	now := e.now()

	RegenerateAll(s, now)

	if err := ValidateAction(s, a.ActorID, a, e.cfg.Costs, e.effects); err != nil {
		return nil, err
	}

	result, err := e.resolver.Resolve(s, a)
	if err != nil {
		return nil, err
	}
	s.LastActionAt = now

	// Victory: one side entirely defeated or fled.
	actor := s.Participant(a.ActorID)
	for _, side := range []Side{SideAttacker, SideDefender} {
		if s.SideEliminated(side) {
			s.Status = StatusEnded
			kind := ResultVictory
			if result.Type == ActionFlee && actor.Side == side {
				kind = ResultFlee
			}
			s.Result = &Result{Kind: kind, WinningSide: side.Opposing()}
			break
		}
	}

	if s.Status == StatusActive {
		next, wrapped, err := AdvanceTurn(s.TurnOrder, s.CurrentTurnIndex, participantIndex(s))
		if err != nil {
			// The victory check above should make this unreachable.
			return nil, fmt.Errorf("advancing turn in session %s: %w", s.ID, err)
		}
		s.CurrentTurnIndex = next
		if wrapped {
			s.RoundNumber++
		}
		// New round past the limit ends the session now rather than on the
		// next access.
		if s.RoundNumber > s.MaxRounds {
			s.Status = StatusTimeout
			s.Result = &Result{Kind: ResultTimeout}
		} else {
			// The incoming actor's timed effects expire as their turn begins.
			if p := s.Participant(s.CurrentActorID()); p != nil {
				p.Effects = p.Effects.Tick()
			}
			result.NextActorID = s.CurrentActorID()
		}
	}

	result.CombatStatus = s.Status
	result.RoundNumber = s.RoundNumber
	result.Result = s.Result
	return result, nil
}

// finishSession reconciles final resources and releases actor bindings for
// a terminal session. Failures are logged, not surfaced: the session result
// already committed and reconciliation is retried by the ops runbook, not
// the caller.
func (e *Engine) finishSession(ctx context.Context, s *Session) {
	if e.reconciler != nil {
		if err := e.reconciler.Reconcile(ctx, s.ID, s.Participants); err != nil {
			e.logger.Error("reconciling session",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
	}
	for _, p := range s.Participants {
		if err := e.store.ReleaseActor(ctx, p.CharID); err != nil {
			e.logger.Error("releasing actor binding",
				zap.String("session_id", s.ID),
				zap.String("char_id", p.CharID),
				zap.Error(err),
			)
		}
	}
}

// snapshot builds a participant from the character record. Resources are
// copied once here; the live record is untouched until reconciliation.
func (e *Engine) snapshot(ctx context.Context, charID string, side Side, now time.Time) (*Participant, error) {
	c, err := e.chars.Character(ctx, charID)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			return nil, NewError(CodeInvalidTarget, "unknown character %q", charID)
		}
		return nil, WrapStoreError(err)
	}
	return &Participant{
		CharID:  c.ID,
		Name:    c.Name,
		Side:    side,
		NPC:     c.IsNPC(),
		Attack:  c.Attack,
		Defense: c.Defense,
		Speed:   c.Speed,
		Resources: Resources{
			HP:           c.HP,
			MaxHP:        c.MaxHP,
			Mana:         c.Mana,
			MaxMana:      c.MaxMana,
			Stamina:      c.Stamina,
			MaxStamina:   c.MaxStamina,
			HPRegen:      c.HPRegen,
			ManaRegen:    c.ManaRegen,
			StaminaRegen: c.StaminaRegen,
			LastRegenAt:  now,
		},
		Alive: c.HP > 0,
	}, nil
}
