package combat

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// Definitions is the read-only game database the engine resolves ids against.
// *ruleset.Registry satisfies it.
type Definitions interface {
	LifeformCategory(id, caller string) (*ruleset.LifeformCategory, error)
	WeaponGrade(id, caller string) (*ruleset.WeaponGrade, error)
	RangedAttackType(id, caller string) (*ruleset.RangedAttackType, error)
	DamageType(id, caller string) (*ruleset.DamageType, error)
	UnitSkill(id, caller string) (*ruleset.UnitSkill, error)
	Spell(id, caller string) (*ruleset.Spell, error)
}

// EffectiveDamageType substitutes the enhanced variant of base when the
// attacker's lifeform category or weapon grade enhances damage types.
//
// Precondition: attacker and base must be non-nil.
// Postcondition: returns base unchanged when it declares no enhanced version.
func (r *Resolver) EffectiveDamageType(attacker *unit.Unit, base *ruleset.DamageType) (*ruleset.DamageType, error) {
	const caller = "combat.EffectiveDamageType"
	if base.EnhancedVersion == "" {
		return base, nil
	}
	enhances := false
	if attacker.LifeformCategoryID != "" {
		lf, err := r.defs.LifeformCategory(attacker.LifeformCategoryID, caller)
		if err != nil {
			return nil, err
		}
		enhances = lf.EnhancesDamageType
	}
	if !enhances && attacker.WeaponGradeID != "" {
		wg, err := r.defs.WeaponGrade(attacker.WeaponGradeID, caller)
		if err != nil {
			return nil, err
		}
		enhances = wg.EnhancesDamageType
	}
	if !enhances {
		return base, nil
	}
	return r.defs.DamageType(base.EnhancedVersion, caller)
}

// IsImmune reports whether defender ignores attacks of damageType made with
// skillID from realmID. A defender is immune when it holds a skill listed as a
// total immunity of the damage type, or a skill declaring immunity to the
// attacking skill or realm.
//
// Precondition: defender and damageType must be non-nil.
func (r *Resolver) IsImmune(defender *unit.Unit, damageType *ruleset.DamageType, skillID, realmID string) (bool, error) {
	for _, im := range damageType.Immunities {
		if im.Total() && defender.HasSkill(im.UnitSkillID) {
			return true, nil
		}
	}
	for _, held := range slices.Sorted(maps.Keys(defender.Skills)) {
		def, err := r.defs.UnitSkill(held, "combat.IsImmune")
		if err != nil {
			return false, fmt.Errorf("defender %s: %w", defender.ID, err)
		}
		for _, m := range def.ImmuneTo {
			if m.Matches(skillID, realmID) {
				return true, nil
			}
		}
	}
	return false, nil
}

// DefenceAgainst returns the defence a figure of the defender rolls against
// attack: its natural defence divided by divisor, raised to the best
// boosts_defence_to floor among the partial immunities it holds. The floor is
// compared against the halved value, so armour piercing never lowers it.
//
// Precondition: divisor >= 1.
// Postcondition: Returns >= 0.
func DefenceAgainst(defender *unit.Snapshot, attack *AttackDescriptor, divisor int) int {
	if divisor < 1 {
		divisor = 1
	}
	defence := defender.Defence / divisor
	if defence < 0 {
		defence = 0
	}
	for _, im := range attack.DamageType.Immunities {
		if im.Total() || !defender.HasSkill(im.UnitSkillID) {
			continue
		}
		if *im.BoostsDefenceTo > defence {
			defence = *im.BoostsDefenceTo
		}
	}
	return defence
}
