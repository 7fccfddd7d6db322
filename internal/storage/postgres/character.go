package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// CharacterRepository provides character persistence. It backs the combat
// engine's CharacterSource (stat snapshots at session start) and Reconciler
// (final resource write-back at session end).
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `
	id, name, kind, class, level,
	attack, defense, speed,
	hp, max_hp, mana, max_mana, stamina, max_stamina,
	hp_regen, mana_regen, stamina_regen,
	created_at, updated_at`

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	err := row.Scan(
		&c.ID, &c.Name, &c.Kind, &c.Class, &c.Level,
		&c.Attack, &c.Defense, &c.Speed,
		&c.HP, &c.MaxHP, &c.Mana, &c.MaxMana, &c.Stamina, &c.MaxStamina,
		&c.HPRegen, &c.ManaRegen, &c.StaminaRegen,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Character returns the character record with the given id.
//
// Postcondition: Returns character.ErrNotFound when no row matches.
func (r *CharacterRepository) Character(ctx context.Context, charID string) (*character.Character, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, charID)
	c, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, character.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying character %s: %w", charID, err)
	}
	return c, nil
}

// Create inserts a new character and returns it with timestamps set.
//
// Precondition: c.ID and c.Name must be non-empty.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(id, name, kind, class, level,
			 attack, defense, speed,
			 hp, max_hp, mana, max_mana, stamina, max_stamina,
			 hp_regen, mana_regen, stamina_regen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING `+characterColumns,
		c.ID, c.Name, c.Kind, c.Class, c.Level,
		c.Attack, c.Defense, c.Speed,
		c.HP, c.MaxHP, c.Mana, c.MaxMana, c.Stamina, c.MaxStamina,
		c.HPRegen, c.ManaRegen, c.StaminaRegen,
	)
	out, err := scanCharacter(row)
	if err != nil {
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// Reconcile writes the final in-session resource values back to the
// authoritative character records. NPC participants are skipped: their
// instances are disposable and respawn from templates.
//
// The updates run in one transaction so a partially reconciled session is
// never visible.
func (r *CharacterRepository) Reconcile(ctx context.Context, sessionID string, participants []*combat.Participant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reconciliation for session %s: %w", sessionID, err)
	}
	defer tx.Rollback(ctx)

	for _, p := range participants {
		if p.NPC {
			continue
		}
		_, err := tx.Exec(ctx, `
			UPDATE characters
			SET hp = $2, mana = $3, stamina = $4, updated_at = now()
			WHERE id = $1`,
			p.CharID, p.Resources.HP, p.Resources.Mana, p.Resources.Stamina,
		)
		if err != nil {
			return fmt.Errorf("reconciling character %s for session %s: %w", p.CharID, sessionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing reconciliation for session %s: %w", sessionID, err)
	}
	return nil
}
