// Package unit models the persistent combat state of a game unit and derives
// the per-attack snapshots the combat engine resolves against.
package unit

import "github.com/cory-johannsen/momserver/internal/game/ruleset"

// Unit is the persistent combat-relevant record of one unit.
//
// Invariant: 0 <= DamageTaken; FigureCount >= 1; Ammo >= 0.
type Unit struct {
	// ID is the unique unit identifier.
	ID string
	// OwnerPlayerID is the player who controls the unit.
	OwnerPlayerID string
	// DefinitionID is the static unit definition this unit was built from.
	DefinitionID string
	// LifeformCategoryID classifies the unit (normal, undead, fantastic...).
	LifeformCategoryID string
	// WeaponGradeID is the unit's equipment grade; empty for none.
	WeaponGradeID string
	// RangedAttackTypeID is set for units with a ranged attack.
	RangedAttackTypeID string
	// FigureCount is the number of figures at full strength.
	FigureCount int
	// DamageTaken is the total hit points lost across all figures.
	DamageTaken int
	// Ammo is the remaining ranged ammunition.
	Ammo int
	// Skills maps skill id to its value after permanent, spell and equipment
	// modifiers but before attack-specific bonuses.
	Skills map[string]int
}

// HasSkill reports whether the unit holds skillID.
func (u *Unit) HasSkill(skillID string) bool {
	_, ok := u.Skills[skillID]
	return ok
}

// BaseHitPointsPerFigure returns the unit's stored hit points per figure, minimum 1.
//
// Postcondition: Returns >= 1.
func (u *Unit) BaseHitPointsPerFigure() int {
	hp := u.Skills[ruleset.SkillHitPoints]
	if hp < 1 {
		return 1
	}
	return hp
}

// Health describes how a unit's remaining hit points are spread over its figures.
type Health struct {
	HitPointsPerFigure   int
	Remaining            int
	AliveFigures         int
	FirstFigureHitPoints int
}

// HealthAt computes the unit's health given a hit points per figure value.
//
// Precondition: hitPointsPerFigure >= 1.
// Postcondition: Remaining == 0 iff AliveFigures == 0; when AliveFigures > 0,
// 1 <= FirstFigureHitPoints <= hitPointsPerFigure.
func (u *Unit) HealthAt(hitPointsPerFigure int) Health {
	total := u.FigureCount * hitPointsPerFigure
	remaining := total - u.DamageTaken
	if remaining < 0 {
		remaining = 0
	}
	h := Health{HitPointsPerFigure: hitPointsPerFigure, Remaining: remaining}
	if remaining == 0 {
		return h
	}
	h.AliveFigures = (remaining + hitPointsPerFigure - 1) / hitPointsPerFigure
	h.FirstFigureHitPoints = remaining - (h.AliveFigures-1)*hitPointsPerFigure
	return h
}

// Health returns the unit's health using its stored hit points per figure.
func (u *Unit) Health() Health {
	return u.HealthAt(u.BaseHitPointsPerFigure())
}

// IsDead reports whether the unit has no living figures.
func (u *Unit) IsDead() bool {
	return u.Health().AliveFigures == 0
}

// Clone returns a deep copy of u.
func (u *Unit) Clone() *Unit {
	cp := *u
	cp.Skills = make(map[string]int, len(u.Skills))
	for k, v := range u.Skills {
		cp.Skills[k] = v
	}
	return &cp
}
