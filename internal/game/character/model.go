// Package character defines the character domain model consumed by the
// combat engine for stat snapshots and final-state reconciliation.
package character

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a character lookup yields no results.
var ErrNotFound = errors.New("character not found")

// Kind distinguishes player characters from non-player combatants.
type Kind string

const (
	KindPlayer Kind = "player"
	KindNPC    Kind = "npc"
)

// Character represents a combat-relevant view of a persistent character record.
//
// ID is assigned by the persistence layer; a zero value indicates an
// unsaved character.
type Character struct {
	ID   string
	Name string
	Kind Kind

	Class string
	Level int

	// Offensive, defensive, and initiative stats.
	Attack  int
	Defense int
	Speed   int

	// Resource pools. Current values are authoritative outside combat;
	// in-combat values live in the session snapshot until reconciliation.
	HP         int
	MaxHP      int
	Mana       int
	MaxMana    int
	Stamina    int
	MaxStamina int

	// Regeneration rates in points per second.
	HPRegen      float64
	ManaRegen    float64
	StaminaRegen float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNPC reports whether this character is a non-player combatant.
func (c *Character) IsNPC() bool { return c.Kind == KindNPC }
