package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Definition is the static definition of an item or skill, loaded from YAML.
type Definition struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`      // "skill" | "item"
	Effect   string `yaml:"effect"`    // "damage" | "heal" | "buff"
	ManaCost int    `yaml:"mana_cost"` // charged by the engine; 0 for items
	// Magnitude is a dice expression for damage/heal amount, or the flat
	// bonus for buff effects (as "NdS+M"; the rolled total is the bonus).
	Magnitude string `yaml:"magnitude"`
	Status    Status `yaml:"status"`   // buff effects only
	Duration  int    `yaml:"duration"` // buff duration in turns
	Target    string `yaml:"target"`   // "self" | "enemy"
}

// Validate checks the definition invariants.
func (d Definition) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Kind != "skill" && d.Kind != "item" {
		errs = append(errs, fmt.Sprintf("kind must be skill or item, got %q", d.Kind))
	}
	switch d.Effect {
	case "damage", "heal":
		if _, err := dice.Parse(d.Magnitude); err != nil {
			errs = append(errs, fmt.Sprintf("magnitude: %v", err))
		}
	case "buff":
		if d.Status == "" {
			errs = append(errs, "buff effects require a status")
		}
		if d.Duration < 1 {
			errs = append(errs, "buff effects require duration >= 1")
		}
		if _, err := dice.Parse(d.Magnitude); err != nil {
			errs = append(errs, fmt.Sprintf("magnitude: %v", err))
		}
	default:
		errs = append(errs, fmt.Sprintf("effect must be damage, heal, or buff, got %q", d.Effect))
	}
	if d.Target != "self" && d.Target != "enemy" {
		errs = append(errs, fmt.Sprintf("target must be self or enemy, got %q", d.Target))
	}
	if d.ManaCost < 0 {
		errs = append(errs, "mana_cost must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("definition %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Delta is the computed result of resolving an item or skill. The engine
// applies it without knowing the definition content.
type Delta struct {
	// HP is the hit point change on the target: negative for damage,
	// positive for healing.
	HP int
	// Buff, when non-nil, is a status effect to attach to the target.
	Buff *Active
	// SelfTarget is true when the delta applies to the actor rather than
	// the action's target.
	SelfTarget bool
	// Description names the effect for the action result message.
	Description string
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry after validating it.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.defs) }

// Cost returns the mana cost for the definition with id.
// Unknown ids return an error; the validator surfaces it as a
// validation failure before any state changes.
func (r *Registry) Cost(id string) (int, error) {
	d, ok := r.defs[id]
	if !ok {
		return 0, fmt.Errorf("unknown item or skill %q", id)
	}
	return d.ManaCost, nil
}

// Resolve computes the Delta for the definition with id, rolling any dice
// through src.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a Delta or an error for unknown ids. Damage deltas
// have HP < 0; heal deltas have HP > 0.
func (r *Registry) Resolve(id string, src dice.Source) (Delta, error) {
	d, ok := r.defs[id]
	if !ok {
		return Delta{}, fmt.Errorf("unknown item or skill %q", id)
	}

	magnitude := 0
	if d.Magnitude != "" {
		expr, err := dice.Parse(d.Magnitude)
		if err != nil {
			return Delta{}, fmt.Errorf("resolving %q: %w", id, err)
		}
		magnitude = expr.Roll(src)
		if magnitude < 0 {
			magnitude = 0
		}
	}

	delta := Delta{
		SelfTarget:  d.Target == "self",
		Description: d.Name,
	}
	switch d.Effect {
	case "damage":
		delta.HP = -magnitude
	case "heal":
		delta.HP = magnitude
	case "buff":
		delta.Buff = &Active{
			Status:         d.Status,
			Amount:         magnitude,
			TurnsRemaining: d.Duration,
		}
	}
	return delta, nil
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("registering %q: %w", path, err)
		}
	}
	return reg, nil
}
