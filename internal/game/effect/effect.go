// Package effect provides time-boxed status effects and the YAML-loaded
// item/skill definition registry used by the combat engine.
package effect

// Status identifies a class of status effect.
type Status string

const (
	// StatusDefend reduces incoming damage by Amount percent while active.
	StatusDefend Status = "defend"
	// StatusAttackUp raises the bearer's attack stat while active.
	StatusAttackUp Status = "attack_up"
	// StatusDefenseUp raises the bearer's defense stat while active.
	StatusDefenseUp Status = "defense_up"
)

// Active is one status effect currently applied to a participant.
// TurnsRemaining is decremented each time the bearer's turn begins;
// the effect is dropped when it reaches zero.
type Active struct {
	Status         Status `json:"status"`
	Amount         int    `json:"amount"`
	TurnsRemaining int    `json:"turns_remaining"`
}

// Set is the collection of status effects on one participant.
// It is not safe for concurrent use; the session owner serialises access.
type Set []Active

// Apply adds a status effect, replacing any existing effect of the same
// status. Replacement keeps the longer of the two durations and the larger
// amount, so re-applying a buff never weakens it.
func (s Set) Apply(a Active) Set {
	for i := range s {
		if s[i].Status == a.Status {
			if a.TurnsRemaining > s[i].TurnsRemaining {
				s[i].TurnsRemaining = a.TurnsRemaining
			}
			if a.Amount > s[i].Amount {
				s[i].Amount = a.Amount
			}
			return s
		}
	}
	return append(s, a)
}

// Has reports whether an effect with the given status is active.
func (s Set) Has(status Status) bool {
	for _, a := range s {
		if a.Status == status {
			return true
		}
	}
	return false
}

// Amount returns the amount of the active effect with the given status,
// or 0 if not present.
func (s Set) Amount(status Status) int {
	for _, a := range s {
		if a.Status == status {
			return a.Amount
		}
	}
	return 0
}

// Tick decrements TurnsRemaining on every effect and drops the expired ones.
// Called when the bearer's turn begins.
//
// Postcondition: all returned effects have TurnsRemaining > 0.
func (s Set) Tick() Set {
	out := s[:0]
	for _, a := range s {
		a.TurnsRemaining--
		if a.TurnsRemaining > 0 {
			out = append(out, a)
		}
	}
	return out
}
