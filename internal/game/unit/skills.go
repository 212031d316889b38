package unit

import (
	"fmt"

	"github.com/cory-johannsen/momserver/internal/game/ruleset"
)

// AttackSource identifies the attack a stat is being computed against.
// Zero value means "no particular attack".
type AttackSource struct {
	SkillID string
	RealmID string
}

// SkillQuery is the single source of truth for a unit's effective skill values.
type SkillQuery interface {
	// ModifiedSkillValue returns the effective value of skillID for u while
	// defending against (or making) the attack vs. ok is false when the unit
	// does not hold the skill at all.
	ModifiedSkillValue(u *Unit, skillID string, vs AttackSource) (value int, ok bool, err error)
}

// SkillDefinitions is the subset of the ruleset the Calculator needs.
type SkillDefinitions interface {
	UnitSkill(id, caller string) (*ruleset.UnitSkill, error)
}

// Calculator applies the conditional bonuses declared on a unit's skills
// (e.g. +2 defence vs ranged attacks) on top of the stored skill values.
type Calculator struct {
	defs SkillDefinitions
}

// NewCalculator returns a Calculator resolving skill definitions from defs.
//
// Precondition: defs must be non-nil.
func NewCalculator(defs SkillDefinitions) *Calculator {
	return &Calculator{defs: defs}
}

// ModifiedSkillValue implements SkillQuery.
//
// Postcondition: returns an error wrapping ruleset.ErrRecordNotFound if any
// skill the unit holds is missing from the ruleset.
func (c *Calculator) ModifiedSkillValue(u *Unit, skillID string, vs AttackSource) (int, bool, error) {
	base, ok := u.Skills[skillID]
	if !ok {
		return 0, false, nil
	}
	value := base
	for held := range u.Skills {
		def, err := c.defs.UnitSkill(held, "unit.Calculator.ModifiedSkillValue")
		if err != nil {
			return 0, false, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		for _, b := range def.Bonuses {
			if b.Stat == skillID && b.Applies(vs.SkillID, vs.RealmID) {
				value += b.Amount
			}
		}
	}
	return value, true, nil
}
