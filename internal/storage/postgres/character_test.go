package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/testutil"
)

// TestCharacterRepository_Integration exercises character persistence and
// session reconciliation against a real PostgreSQL. Docker is required; the
// test is skipped without it.
func TestCharacterRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewCharacterRepository(pc.RawPool)

	hero := &character.Character{
		ID: "hero", Name: "Astrid", Kind: character.KindPlayer, Class: "warden", Level: 3,
		Attack: 10, Defense: 4, Speed: 10,
		HP: 30, MaxHP: 30, Mana: 20, MaxMana: 40, Stamina: 20, MaxStamina: 50,
		ManaRegen: 1, StaminaRegen: 2,
	}
	goblin := &character.Character{
		ID: "goblin", Name: "Snagtooth", Kind: character.KindNPC,
		Attack: 6, Defense: 2, Speed: 5,
		HP: 20, MaxHP: 20, Stamina: 50, MaxStamina: 50,
	}

	t.Run("create and fetch", func(t *testing.T) {
		created, err := repo.Create(ctx, hero)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Error("Create should return database timestamps")
		}
		if _, err := repo.Create(ctx, goblin); err != nil {
			t.Fatalf("Create goblin: %v", err)
		}

		got, err := repo.Character(ctx, "hero")
		if err != nil {
			t.Fatalf("Character: %v", err)
		}
		if got.Name != "Astrid" || got.Kind != character.KindPlayer || got.Level != 3 {
			t.Errorf("Character = %+v, want the created record", got)
		}
		if got.Mana != 20 || got.ManaRegen != 1 {
			t.Errorf("Character pools = %+v, want mana 20 regen 1", got)
		}
	})

	t.Run("missing character", func(t *testing.T) {
		_, err := repo.Character(ctx, "nobody")
		if !errors.Is(err, character.ErrNotFound) {
			t.Errorf("err = %v, want character.ErrNotFound", err)
		}
	})

	t.Run("reconcile writes back players and skips NPCs", func(t *testing.T) {
		participants := []*combat.Participant{
			{
				CharID: "hero", Side: combat.SideAttacker, Alive: true,
				Resources: combat.Resources{HP: 12, MaxHP: 30, Mana: 8, MaxMana: 40, Stamina: 5, MaxStamina: 50},
			},
			{
				CharID: "goblin", Side: combat.SideDefender, NPC: true,
				Resources: combat.Resources{HP: 0, MaxHP: 20},
			},
		}
		if err := repo.Reconcile(ctx, "session-1", participants); err != nil {
			t.Fatalf("Reconcile: %v", err)
		}

		got, err := repo.Character(ctx, "hero")
		if err != nil {
			t.Fatalf("Character after reconcile: %v", err)
		}
		if got.HP != 12 || got.Mana != 8 || got.Stamina != 5 {
			t.Errorf("hero pools = hp %d mana %d stamina %d, want 12 8 5", got.HP, got.Mana, got.Stamina)
		}
		if !got.UpdatedAt.After(got.CreatedAt) {
			t.Error("reconcile should bump updated_at")
		}

		npc, err := repo.Character(ctx, "goblin")
		if err != nil {
			t.Fatalf("Character goblin: %v", err)
		}
		if npc.HP != 20 {
			t.Errorf("goblin HP = %d, want 20 (NPCs are not reconciled)", npc.HP)
		}
	})
}
