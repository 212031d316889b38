package combat

import (
	"fmt"

	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// SkillAttack computes the attack attacker makes against defender with skillID.
// rangedPenalty is the distance penalty to hit supplied by the combat map.
//
// A nil descriptor with a nil error means no attack is produced: the skill is
// missing or negative, the attacker has no living figures or no ammunition
// left, or the defender is immune. When an attack is produced with an
// ammunition-consuming skill, attacker.Ammo is decremented by one; this is the
// only change made to either unit.
//
// Precondition: attacker and defender must be non-nil.
// Postcondition: a non-nil descriptor satisfies the AttackDescriptor invariant.
func (r *Resolver) SkillAttack(attacker, defender *unit.Unit, skillID string, rangedPenalty int) (*AttackDescriptor, error) {
	const caller = "combat.SkillAttack"
	skill, err := r.defs.UnitSkill(skillID, caller)
	if err != nil {
		return nil, err
	}

	value, ok, err := r.skills.ModifiedSkillValue(attacker, skillID, unit.AttackSource{})
	if err != nil {
		return nil, err
	}
	if !ok || value < 0 {
		return nil, nil
	}

	hp, _, err := r.skills.ModifiedSkillValue(attacker, ruleset.SkillHitPoints, unit.AttackSource{})
	if err != nil {
		return nil, err
	}
	if hp < 1 {
		hp = 1
	}
	alive := attacker.HealthAt(hp).AliveFigures
	if alive == 0 {
		return nil, nil
	}

	kind, err := ParseResolutionKind(skill.DamageResolution)
	if err != nil {
		return nil, fmt.Errorf("unit skill %q: %w", skillID, err)
	}
	if !skill.Combination.Valid() {
		return nil, fmt.Errorf("%w: unit skill %q declares no valid combination", ErrConfiguration, skillID)
	}
	if skill.DamageType == "" {
		return nil, fmt.Errorf("%w: unit skill %q declares no damage type", ErrConfiguration, skillID)
	}
	if skill.ConsumesAmmo && attacker.Ammo <= 0 {
		return nil, nil
	}

	realmID := skill.MagicRealmID
	if skillID == ruleset.SkillRangedAttack {
		if attacker.RangedAttackTypeID == "" {
			return nil, fmt.Errorf("%w: unit %s has %s but no ranged attack type", ErrConfiguration, attacker.ID, skillID)
		}
		rat, err := r.defs.RangedAttackType(attacker.RangedAttackTypeID, caller)
		if err != nil {
			return nil, err
		}
		realmID = rat.MagicRealmID
	}

	damageType, err := r.attackDamageType(attacker, defender, skill, realmID)
	if err != nil || damageType == nil {
		return nil, err
	}

	repetitions := skill.Repetitions
	if repetitions < 1 {
		repetitions = 1
	}
	potential := value
	switch skill.Combination {
	case ruleset.CombinationPerUnit:
	case ruleset.CombinationPerFigureSeparate:
		repetitions *= alive
	case ruleset.CombinationPerFigureCombined:
		potential = value * alive
	}

	plusToHit, _, err := r.skills.ModifiedSkillValue(attacker, ruleset.SkillPlusToHit, unit.AttackSource{SkillID: skillID, RealmID: realmID})
	if err != nil {
		return nil, err
	}

	if skill.ConsumesAmmo {
		attacker.Ammo--
	}
	return &AttackDescriptor{
		PotentialHits: intPtr(potential),
		ChanceToHit:   unit.Clamp10(BaseChanceToHit + plusToHit - rangedPenalty),
		DamageType:    damageType,
		Kind:          kind,
		SkillID:       skillID,
		RealmID:       realmID,
		Repetitions:   repetitions,
	}, nil
}

// attackDamageType picks the damage type of a skill attack. It returns nil
// when the defender is immune.
func (r *Resolver) attackDamageType(attacker, defender *unit.Unit, skill *ruleset.UnitSkill, realmID string) (*ruleset.DamageType, error) {
	const caller = "combat.SkillAttack"
	if attacker.HasSkill(ruleset.SkillCreateUndead) {
		base, err := r.defs.DamageType(ruleset.DamageTypeLifeStealing, caller)
		if err != nil {
			return nil, err
		}
		dt, err := r.EffectiveDamageType(attacker, base)
		if err != nil {
			return nil, err
		}
		immune, err := r.IsImmune(defender, dt, skill.ID, realmID)
		if err != nil {
			return nil, err
		}
		if !immune {
			return dt, nil
		}
	}

	base, err := r.defs.DamageType(skill.DamageType, caller)
	if err != nil {
		return nil, err
	}
	dt, err := r.EffectiveDamageType(attacker, base)
	if err != nil {
		return nil, err
	}
	immune, err := r.IsImmune(defender, dt, skill.ID, realmID)
	if err != nil || immune {
		return nil, err
	}
	return dt, nil
}

// SpellAttack computes the attack a spell makes against defender.
// variableDamage is the extra power the caster chose, if the spell allows it.
//
// A nil descriptor with a nil error means the defender is immune.
//
// Precondition: spell and defender must be non-nil.
func (r *Resolver) SpellAttack(spell *ruleset.Spell, variableDamage *int, defender *unit.Unit) (*AttackDescriptor, error) {
	kind, err := ParseResolutionKind(spell.DamageResolution)
	if err != nil {
		return nil, fmt.Errorf("spell %q: %w", spell.ID, err)
	}
	if spell.DamageType == "" {
		return nil, fmt.Errorf("%w: spell %q declares no damage type", ErrConfiguration, spell.ID)
	}
	damageType, err := r.defs.DamageType(spell.DamageType, "combat.SpellAttack")
	if err != nil {
		return nil, err
	}
	immune, err := r.IsImmune(defender, damageType, "", spell.MagicRealmID)
	if err != nil || immune {
		return nil, err
	}

	var potential *int
	switch {
	case variableDamage != nil:
		potential = intPtr(*variableDamage)
	case spell.BaseDamage != nil:
		potential = intPtr(*spell.BaseDamage)
	}
	chance := BaseChanceToHit
	if spell.ChanceToHit != nil {
		chance = *spell.ChanceToHit
	}
	return &AttackDescriptor{
		PotentialHits: potential,
		ChanceToHit:   unit.Clamp10(chance),
		DamageType:    damageType,
		Kind:          kind,
		Spell:         spell,
		RealmID:       spell.MagicRealmID,
		Repetitions:   1,
	}, nil
}
