package combat

import "time"

// Regenerate applies lazy passive recovery to a participant's resource
// pools for the time elapsed since LastRegenAt. Pools gain whole points
// only; the sub-point remainder is carried in the pool's carry field, so
// rapid repeated calls neither over-heal nor starve a slow rate.
//
// Dead and fled participants do not regenerate.
//
// Postcondition: idempotent at the same now (zero delta); monotonic (no pool
// ever decreases); every pool stays within [0, max].
func Regenerate(p *Participant, now time.Time) {
	if !p.CanAct() {
		return
	}
	elapsed := now.Sub(p.Resources.LastRegenAt)
	if elapsed <= 0 {
		return
	}
	secs := elapsed.Seconds()

	p.Resources.HP = regenPool(p.Resources.HP, p.Resources.MaxHP, p.Resources.HPRegen, secs, &p.Resources.HPCarry)
	p.Resources.Mana = regenPool(p.Resources.Mana, p.Resources.MaxMana, p.Resources.ManaRegen, secs, &p.Resources.ManaCarry)
	p.Resources.Stamina = regenPool(p.Resources.Stamina, p.Resources.MaxStamina, p.Resources.StaminaRegen, secs, &p.Resources.StaminaCarry)
	p.Resources.LastRegenAt = now
}

// RegenerateAll applies Regenerate to every participant in the session.
func RegenerateAll(s *Session, now time.Time) {
	for _, p := range s.Participants {
		Regenerate(p, now)
	}
}

func regenPool(current, max int, rate, secs float64, carry *float64) int {
	if rate <= 0 || current >= max {
		*carry = 0
		return current
	}
	accrued := *carry + rate*secs
	gained := int(accrued)
	*carry = accrued - float64(gained)
	if gained <= 0 {
		return current
	}
	current += gained
	if current > max {
		current = max
		*carry = 0
	}
	return current
}
