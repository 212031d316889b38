// Package ruleset is the static game database: damage types, unit skills,
// spells, lifeform categories, weapon grades, ranged attack types and magic
// realms, loaded from YAML content files.
package ruleset

import (
	"errors"
	"fmt"
)

// Well-known skill, stat and damage type identifiers the combat engine relies on.
const (
	SkillHitPoints    = "hit_points"
	SkillDefence      = "defence"
	SkillResistance   = "resistance"
	SkillPlusToHit    = "plus_to_hit"
	SkillPlusToBlock  = "plus_to_block"
	SkillRangedAttack = "ranged_attack"
	SkillCreateUndead = "create_undead"

	StatResistance = "resistance"

	DamageTypeLifeStealing = "life_stealing"
)

// Combination says how an attacking unit's figures turn one skill value into attacks.
type Combination string

const (
	// CombinationPerUnit makes one attack for the whole unit.
	CombinationPerUnit Combination = "per_unit"
	// CombinationPerFigureSeparate makes one independent attack per living figure.
	CombinationPerFigureSeparate Combination = "per_figure_separate"
	// CombinationPerFigureCombined rolls all living figures' dice as one pool.
	CombinationPerFigureCombined Combination = "per_figure_combined"
)

// Valid reports whether c is one of the declared combinations.
func (c Combination) Valid() bool {
	switch c {
	case CombinationPerUnit, CombinationPerFigureSeparate, CombinationPerFigureCombined:
		return true
	default:
		return false
	}
}

// MagicRealm is a magical alignment such as chaos, life or sorcery.
type MagicRealm struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LifeformCategory groups units by nature (normal, undead, fantastic...).
type LifeformCategory struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	EnhancesDamageType bool   `yaml:"enhances_damage_type"`
}

// WeaponGrade is the quality of a unit's equipment (normal, magic, mithril...).
type WeaponGrade struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	EnhancesDamageType bool   `yaml:"enhances_damage_type"`
}

// RangedAttackType describes what a ranged attack physically is (arrows, fire bolt...).
// Its realm takes precedence over the attacking unit's own realm.
type RangedAttackType struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	MagicRealmID string `yaml:"magic_realm"`
}

// DamageTypeImmunity names a unit skill that protects against a damage type.
// A nil BoostsDefenceTo means total immunity.
type DamageTypeImmunity struct {
	UnitSkillID     string `yaml:"unit_skill"`
	BoostsDefenceTo *int   `yaml:"boosts_defence_to"`
}

// Total reports whether the immunity blocks the attack outright.
func (i DamageTypeImmunity) Total() bool { return i.BoostsDefenceTo == nil }

// DamageType is a category of damage with optional enhanced variant and immunities.
type DamageType struct {
	ID              string               `yaml:"id"`
	Name            string               `yaml:"name"`
	EnhancedVersion string               `yaml:"enhanced_version"`
	Immunities      []DamageTypeImmunity `yaml:"immunities"`
}

// AttackSourceMatch identifies attacks by originating skill and/or realm.
// Empty fields match anything; at least one field must be set.
type AttackSourceMatch struct {
	SkillID string `yaml:"skill"`
	RealmID string `yaml:"realm"`
}

// Matches reports whether an attack from skillID/realmID matches m.
func (m AttackSourceMatch) Matches(skillID, realmID string) bool {
	if m.SkillID == "" && m.RealmID == "" {
		return false
	}
	if m.SkillID != "" && m.SkillID != skillID {
		return false
	}
	if m.RealmID != "" && m.RealmID != realmID {
		return false
	}
	return true
}

// SkillBonus adds Amount to Stat while the holder defends against (or makes)
// an attack matching the optional VsSkill/VsRealm filters.
type SkillBonus struct {
	Stat    string `yaml:"stat"`
	Amount  int    `yaml:"amount"`
	VsSkill string `yaml:"vs_skill"`
	VsRealm string `yaml:"vs_realm"`
}

// Applies reports whether the bonus is active against the given attack source.
func (b SkillBonus) Applies(skillID, realmID string) bool {
	if b.VsSkill != "" && b.VsSkill != skillID {
		return false
	}
	if b.VsRealm != "" && b.VsRealm != realmID {
		return false
	}
	return true
}

// UnitSkill is the static definition of a unit skill. Attack skills carry a
// damage resolution kind, damage type and combination; passive skills carry
// bonuses and immunities.
type UnitSkill struct {
	ID               string              `yaml:"id"`
	Name             string              `yaml:"name"`
	DamageResolution string              `yaml:"damage_resolution"`
	DamageType       string              `yaml:"damage_type"`
	Combination      Combination         `yaml:"combination"`
	Repetitions      int                 `yaml:"repetitions"`
	MagicRealmID     string              `yaml:"magic_realm"`
	ConsumesAmmo     bool                `yaml:"consumes_ammo"`
	ImmuneTo         []AttackSourceMatch `yaml:"immune_to"`
	Bonuses          []SkillBonus        `yaml:"bonuses"`
}

// IsAttack reports whether the skill can be used to attack.
func (s *UnitSkill) IsAttack() bool { return s.DamageResolution != "" }

// SavingThrowModifier is an extra saving throw adjustment a spell applies to
// defenders of one lifeform category.
type SavingThrowModifier struct {
	LifeformCategoryID string `yaml:"lifeform_category"`
	Stat               string `yaml:"stat"`
	Modifier           int    `yaml:"modifier"`
}

// Spell is the static definition of a combat spell.
type Spell struct {
	ID                   string                `yaml:"id"`
	Name                 string                `yaml:"name"`
	MagicRealmID         string                `yaml:"magic_realm"`
	DamageResolution     string                `yaml:"damage_resolution"`
	DamageType           string                `yaml:"damage_type"`
	BaseDamage           *int                  `yaml:"base_damage"`
	ChanceToHit          *int                  `yaml:"chance_to_hit"`
	SavingThrowModifiers []SavingThrowModifier `yaml:"saving_throw_modifiers"`
}

// Validate checks the invariants of a damage type.
//
// Postcondition: returns nil iff all fields are valid.
func (d *DamageType) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.EnhancedVersion == d.ID && d.ID != "" {
		errs = append(errs, fmt.Errorf("damage type %q cannot enhance to itself", d.ID))
	}
	for _, im := range d.Immunities {
		if im.UnitSkillID == "" {
			errs = append(errs, fmt.Errorf("damage type %q: immunity unit_skill must not be empty", d.ID))
		}
		if im.BoostsDefenceTo != nil && *im.BoostsDefenceTo < 0 {
			errs = append(errs, fmt.Errorf("damage type %q: boosts_defence_to must be >= 0", d.ID))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the invariants of a unit skill.
//
// Postcondition: returns nil iff all fields are valid.
func (s *UnitSkill) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Repetitions < 0 {
		errs = append(errs, fmt.Errorf("unit skill %q: repetitions must be >= 0", s.ID))
	}
	if s.Combination != "" && !s.Combination.Valid() {
		errs = append(errs, fmt.Errorf("unit skill %q: unknown combination %q", s.ID, s.Combination))
	}
	for _, m := range s.ImmuneTo {
		if m.SkillID == "" && m.RealmID == "" {
			errs = append(errs, fmt.Errorf("unit skill %q: immune_to entry needs skill or realm", s.ID))
		}
	}
	for _, b := range s.Bonuses {
		if b.Stat == "" {
			errs = append(errs, fmt.Errorf("unit skill %q: bonus stat must not be empty", s.ID))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the invariants of a spell.
//
// Postcondition: returns nil iff all fields are valid.
func (s *Spell) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.ChanceToHit != nil && (*s.ChanceToHit < 0 || *s.ChanceToHit > 10) {
		errs = append(errs, fmt.Errorf("spell %q: chance_to_hit must be 0-10", s.ID))
	}
	for _, m := range s.SavingThrowModifiers {
		if m.LifeformCategoryID == "" {
			errs = append(errs, fmt.Errorf("spell %q: saving throw modifier needs lifeform_category", s.ID))
		}
	}
	return errors.Join(errs...)
}
