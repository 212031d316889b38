package combat

import "github.com/cory-johannsen/momserver/internal/game/unit"

// ApplyDamage applies outcome to defender's persistent health state and
// returns the health actually removed.
//
// Precondition: defender must be non-nil; outcome was resolved against a
// snapshot of defender's current state.
// Postcondition: 0 <= returned value <= outcome.RemainingHealth; Ammo >= 0.
func ApplyDamage(defender *unit.Unit, outcome DamageOutcome) int {
	applied := outcome.Damage
	if applied > outcome.RemainingHealth {
		applied = outcome.RemainingHealth
	}
	if applied < 0 {
		applied = 0
	}
	defender.DamageTaken += applied

	if outcome.AmmoRemoved > 0 {
		defender.Ammo -= min(outcome.AmmoRemoved, defender.Ammo)
	}
	return applied
}
